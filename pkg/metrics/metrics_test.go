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
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(RedemptionsTotal.WithLabelValues("success"))
	RecordRedemption("success")
	assert.Equal(t, before+1, testutil.ToFloat64(RedemptionsTotal.WithLabelValues("success")))

	beforeFailed := testutil.ToFloat64(SweepAccountsTotal.WithLabelValues("delete", "failed"))
	RecordSweepAccounts("delete", 0, 2)
	assert.Equal(t, beforeFailed+2, testutil.ToFloat64(SweepAccountsTotal.WithLabelValues("delete", "failed")))

	next := time.Date(2025, 1, 1, 23, 50, 0, 0, time.UTC)
	UpdateSweepNextRun("primary", next)
	assert.Equal(t, float64(next.Unix()), testutil.ToFloat64(SweepNextRunTime.WithLabelValues("primary")))

	beforeGroup := testutil.ToFloat64(GroupAssignmentFailuresTotal)
	RecordGroupAssignmentFailure()
	assert.Equal(t, beforeGroup+1, testutil.ToFloat64(GroupAssignmentFailuresTotal))
}

func TestServerHandler(t *testing.T) {
	conf := &Conf{}
	conf.SetDefaults()
	server := NewMetricsServer(conf)
	RecordSweepRun("primary", "ok", time.Second)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "invitekit_sweep_runs_total")

	// disabled server neither listens nor fails to stop
	assert.NoError(t, server.Start())
	assert.NoError(t, server.Stop(t.Context()))
}
