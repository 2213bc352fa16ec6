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

package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-arcade/invitekit/internal/engine/model"
	"github.com/go-arcade/invitekit/internal/engine/service"
	"github.com/go-arcade/invitekit/internal/pkg/notify"
	"github.com/go-arcade/invitekit/internal/pkg/storage"
	"github.com/go-arcade/invitekit/pkg/cache"
	"github.com/go-arcade/invitekit/pkg/cron"
	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/go-arcade/invitekit/pkg/metrics"
	"github.com/go-arcade/invitekit/pkg/safe"
	"github.com/go-arcade/invitekit/pkg/trace"
	"go.opentelemetry.io/otel/attribute"
)

const (
	PassPrimary = "primary"
	PassConfirm = "confirm"
	PassManual  = "manual"

	lockKey = "sweep"
)

// ErrBusy is returned when another sweep holds the lock.
var ErrBusy = errors.New("another sweep is running")

// Sweeper is the part of the account service the job drives.
type Sweeper interface {
	Sweep(ctx context.Context, opts service.SweepOptions) (*model.SweepReport, error)
	Upcoming(ctx context.Context, days int) ([]*model.ExpiringAccount, error)
}

// ExpiringDigest is the payload of the expiring-soon webhook event.
type ExpiringDigest struct {
	Days     int                      `json:"days"`
	Count    int                      `json:"count"`
	Accounts []*model.ExpiringAccount `json:"accounts"`
}

// SweepJob fires the account sweep on the configured schedule. Runs are
// serialised through a Locker so they never overlap, in this process or
// across replicas sharing redis.
type SweepJob struct {
	sweeper    Sweeper
	conf       *service.SweepConf
	notifyConf *notify.Conf
	locker     cache.Locker
	notifier   notify.Notifier
	archive    *storage.ReportArchive
	scheduler  *cron.Scheduler

	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	now     func() time.Time
}

func NewSweepJob(sweeper Sweeper, conf *service.SweepConf, locker cache.Locker, notifier notify.Notifier, notifyConf *notify.Conf, archive *storage.ReportArchive) (*SweepJob, error) {
	if archive == nil {
		archive = storage.NewReportArchive(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &SweepJob{
		sweeper:    sweeper,
		conf:       conf,
		notifyConf: notifyConf,
		locker:     locker,
		notifier:   notifier,
		archive:    archive,
		scheduler:  cron.New(conf.Location()),
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
	}

	if err := j.scheduler.AddFunc(PassPrimary, conf.PrimarySpec, j.fire(PassPrimary)); err != nil {
		cancel()
		return nil, fmt.Errorf("sweep.primarySpec: %w", err)
	}
	if err := j.scheduler.AddFunc(PassConfirm, conf.ConfirmSpec, j.fire(PassConfirm)); err != nil {
		cancel()
		return nil, fmt.Errorf("sweep.confirmSpec: %w", err)
	}
	return j, nil
}

func (j *SweepJob) fire(pass string) func() {
	return func() {
		j.mu.Lock()
		if j.stopped {
			j.mu.Unlock()
			return
		}
		j.wg.Add(1)
		j.mu.Unlock()
		defer j.wg.Done()

		safe.Do(func() {
			if _, err := j.RunPass(j.ctx, pass); err != nil && !errors.Is(err, ErrBusy) {
				log.Errorw("scheduled sweep failed", "pass", pass, "error", err)
			}
		})
		j.updateNextRun()
	}
}

// Start arms the schedule. It is a no-op when the sweep is disabled.
func (j *SweepJob) Start() {
	if !j.conf.Enabled {
		log.Info("sweep schedule disabled")
		return
	}
	j.scheduler.Start()
	j.updateNextRun()
	log.Infow("sweep schedule started",
		"jobs", j.scheduler.Names(),
		"primary", j.conf.PrimarySpec,
		"confirm", j.conf.ConfirmSpec,
		"timezone", j.scheduler.Location().String(),
	)
}

// Stop disarms the schedule and waits for a running sweep to return. If
// ctx ends first the running sweep is cancelled.
func (j *SweepJob) Stop(ctx context.Context) error {
	j.mu.Lock()
	j.stopped = true
	j.mu.Unlock()
	j.scheduler.Stop()

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		j.cancel()
		return nil
	case <-ctx.Done():
		j.cancel()
		<-done
		return ctx.Err()
	}
}

// Running reports whether the schedule is armed.
func (j *SweepJob) Running() bool {
	return j.scheduler.Running()
}

// Next returns when pass fires next.
func (j *SweepJob) Next(pass string) (time.Time, error) {
	return j.scheduler.Next(pass, j.now())
}

func (j *SweepJob) updateNextRun() {
	for _, pass := range []string{PassPrimary, PassConfirm} {
		if next, err := j.Next(pass); err == nil {
			metrics.UpdateSweepNextRun(pass, next)
		}
	}
}

// Run performs one locked sweep with opts. It returns ErrBusy when another
// sweep holds the lock.
func (j *SweepJob) Run(ctx context.Context, opts service.SweepOptions) (*model.SweepReport, error) {
	return j.run(ctx, PassManual, opts)
}

// RunPass performs a scheduled pass. The primary pass disposes of due
// accounts and posts the report. The confirmation pass only counts what
// is still due.
func (j *SweepJob) RunPass(ctx context.Context, pass string) (*model.SweepReport, error) {
	switch pass {
	case PassPrimary:
		report, err := j.run(ctx, pass, service.SweepOptions{})
		if err != nil {
			return nil, err
		}
		j.publish(ctx, report)
		return report, nil
	case PassConfirm:
		report, err := j.run(ctx, pass, service.SweepOptions{DryRun: true})
		if err != nil {
			return nil, err
		}
		if report.Expired > 0 {
			log.Warnw("accounts still due after sweep", "runId", report.RunId, "remaining", report.Expired)
		} else {
			log.Infow("confirmation pass found no due accounts", "runId", report.RunId)
		}
		return report, nil
	default:
		return nil, fmt.Errorf("unknown sweep pass %q", pass)
	}
}

func (j *SweepJob) run(ctx context.Context, pass string, opts service.SweepOptions) (report *model.SweepReport, err error) {
	ctx, span := trace.Start(ctx, "sweep."+pass,
		attribute.Bool("sweep.dry_run", opts.DryRun),
		attribute.String("sweep.action", string(opts.Action)),
	)
	defer func() {
		if report != nil {
			span.SetAttributes(
				attribute.String("sweep.run_id", report.RunId),
				attribute.Int("sweep.expired", report.Expired),
				attribute.Int("sweep.failed", report.Failed),
			)
		}
		trace.End(span, err)
	}()

	unlock, ok, err := j.locker.TryLock(ctx, lockKey, j.conf.LockTTL)
	if err != nil {
		metrics.RecordSweepRun(pass, "error", 0)
		return nil, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !ok {
		log.Warnw("sweep skipped, lock held elsewhere", "pass", pass)
		metrics.RecordSweepRun(pass, "skipped", 0)
		return nil, ErrBusy
	}
	defer unlock()

	start := j.now()
	log.Infow("sweep started", "pass", pass, "dryRun", opts.DryRun, "action", opts.Action)
	report, err = j.sweeper.Sweep(ctx, opts)
	elapsed := j.now().Sub(start)
	if err != nil {
		metrics.RecordSweepRun(pass, "error", elapsed)
		return nil, err
	}

	result := "ok"
	if report.Failed > 0 {
		result = "partial"
	}
	metrics.RecordSweepRun(pass, result, elapsed)
	if !opts.DryRun {
		j.store(ctx, pass, report)
	}
	return report, nil
}

// store archives a disposing report. Failures are logged only.
func (j *SweepJob) store(ctx context.Context, pass string, report *model.SweepReport) {
	if !j.archive.Enabled() {
		return
	}
	fullPath, err := j.archive.Put(ctx, pass, report.RunId, report.StartedAt, report)
	if err != nil {
		log.Warnw("archive sweep report failed", "runId", report.RunId, "error", err)
		return
	}
	log.Infow("sweep report archived", "runId", report.RunId, "object", fullPath)
}

// publish posts the report and the expiring-soon digest. Delivery failures
// are logged and never fail the sweep.
func (j *SweepJob) publish(ctx context.Context, report *model.SweepReport) {
	if j.notifier == nil || !j.notifier.Enabled() {
		return
	}
	if err := j.notifier.Notify(ctx, notify.EventSweepReport, report); err != nil {
		log.Warnw("post sweep report failed", "runId", report.RunId, "error", err)
	}

	days := j.notifyConf.ExpiringDays
	accounts, err := j.sweeper.Upcoming(ctx, days)
	if err != nil {
		log.Warnw("build expiring digest failed", "days", days, "error", err)
		return
	}
	digest := &ExpiringDigest{Days: days, Count: len(accounts), Accounts: accounts}
	if err := j.notifier.Notify(ctx, notify.EventExpiring, digest); err != nil {
		log.Warnw("post expiring digest failed", "days", days, "error", err)
	}
}
