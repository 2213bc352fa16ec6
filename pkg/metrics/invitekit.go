// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SweepRunsTotal counts sweep passes by pass name and result
	SweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitekit_sweep_runs_total",
			Help: "Total number of sweep passes",
		},
		[]string{"pass", "result"},
	)

	// SweepAccountsTotal counts accounts handled by the sweep
	SweepAccountsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitekit_sweep_accounts_total",
			Help: "Accounts processed or failed by the sweep",
		},
		[]string{"action", "outcome"},
	)

	// SweepDurationSeconds measures the duration of sweep passes
	SweepDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "invitekit_sweep_duration_seconds",
			Help:    "Duration of sweep passes in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		},
		[]string{"pass"},
	)

	// SweepNextRunTime records the next scheduled run of each pass
	SweepNextRunTime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "invitekit_sweep_next_run_time_seconds",
			Help: "Next scheduled sweep pass in seconds since epoch",
		},
		[]string{"pass"},
	)

	// RedemptionsTotal counts redemption attempts by result
	RedemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitekit_redemptions_total",
			Help: "Invite redemptions by result",
		},
		[]string{"result"},
	)

	// GroupAssignmentFailuresTotal counts swallowed group membership failures
	GroupAssignmentFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invitekit_group_assignment_failures_total",
			Help: "Directory group assignments that failed during redemption",
		},
	)

	// AccountTransitionsTotal counts committed account status changes
	AccountTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitekit_account_transitions_total",
			Help: "Account status changes by source and target status",
		},
		[]string{"from", "to"},
	)

	registerOnce sync.Once
)

// Register adds every invitekit collector to registry once.
func Register(registry prometheus.Registerer) {
	registerOnce.Do(func() {
		registry.MustRegister(
			SweepRunsTotal,
			SweepAccountsTotal,
			SweepDurationSeconds,
			SweepNextRunTime,
			RedemptionsTotal,
			GroupAssignmentFailuresTotal,
			AccountTransitionsTotal,
		)
	})
}

// RecordSweepRun records a finished or skipped sweep pass
func RecordSweepRun(pass, result string, duration time.Duration) {
	SweepRunsTotal.WithLabelValues(pass, result).Inc()
	if duration > 0 {
		SweepDurationSeconds.WithLabelValues(pass).Observe(duration.Seconds())
	}
}

func RecordSweepAccounts(action string, processed, failed int) {
	if processed > 0 {
		SweepAccountsTotal.WithLabelValues(action, "processed").Add(float64(processed))
	}
	if failed > 0 {
		SweepAccountsTotal.WithLabelValues(action, "failed").Add(float64(failed))
	}
}

func UpdateSweepNextRun(pass string, next time.Time) {
	if !next.IsZero() {
		SweepNextRunTime.WithLabelValues(pass).Set(float64(next.Unix()))
	}
}

func RecordRedemption(result string) {
	RedemptionsTotal.WithLabelValues(result).Inc()
}

func RecordGroupAssignmentFailure() {
	GroupAssignmentFailuresTotal.Inc()
}

func RecordAccountTransition(from, to string) {
	AccountTransitionsTotal.WithLabelValues(from, to).Inc()
}
