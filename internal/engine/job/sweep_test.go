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
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/invitekit/internal/engine/model"
	"github.com/go-arcade/invitekit/internal/engine/service"
	"github.com/go-arcade/invitekit/internal/pkg/notify"
	"github.com/go-arcade/invitekit/internal/pkg/storage"
	"github.com/go-arcade/invitekit/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	mu       sync.Mutex
	calls    []service.SweepOptions
	report   model.SweepReport
	err      error
	upcoming []*model.ExpiringAccount
	days     int
	block    chan struct{}
	entered  chan struct{}
}

func (f *fakeSweeper) Sweep(ctx context.Context, opts service.SweepOptions) (*model.SweepReport, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	report := f.report
	report.DryRun = opts.DryRun
	return &report, nil
}

func (f *fakeSweeper) Upcoming(_ context.Context, days int) ([]*model.ExpiringAccount, error) {
	f.days = days
	return f.upcoming, nil
}

type event struct {
	kind string
	data any
}

type fakeNotifier struct {
	enabled bool
	err     error
	events  []event
}

func (n *fakeNotifier) Enabled() bool { return n.enabled }

func (n *fakeNotifier) Notify(_ context.Context, eventType string, data any) error {
	n.events = append(n.events, event{kind: eventType, data: data})
	return n.err
}

type fakeStore struct {
	objects map[string][]byte
	err     error
}

func (s *fakeStore) Enabled() bool { return true }

func (s *fakeStore) PutObject(_ context.Context, objectName string, body []byte, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[objectName] = body
	return objectName, nil
}

func newJob(t *testing.T, sweeper Sweeper, notifier notify.Notifier) (*SweepJob, *cache.LocalLocker) {
	t.Helper()
	conf := &service.SweepConf{Enabled: true, Timezone: "UTC"}
	conf.SetDefaults()
	require.NoError(t, conf.Validate())
	notifyConf := &notify.Conf{}
	notifyConf.SetDefaults()

	locker := cache.NewLocalLocker()
	j, err := NewSweepJob(sweeper, conf, locker, notifier, notifyConf, nil)
	require.NoError(t, err)
	j.now = func() time.Time { return time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC) }
	return j, locker
}

func TestNewSweepJob_InvalidSpec(t *testing.T) {
	conf := &service.SweepConf{PrimarySpec: "every night", Timezone: "UTC"}
	conf.SetDefaults()
	_, err := NewSweepJob(&fakeSweeper{}, conf, cache.NewLocalLocker(), nil, &notify.Conf{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep.primarySpec")

	conf = &service.SweepConf{ConfirmSpec: "0 61 23 * * *", Timezone: "UTC"}
	conf.SetDefaults()
	_, err = NewSweepJob(&fakeSweeper{}, conf, cache.NewLocalLocker(), nil, &notify.Conf{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep.confirmSpec")
}

func TestSweepJob_Next(t *testing.T) {
	j, _ := newJob(t, &fakeSweeper{}, nil)

	next, err := j.Next(PassPrimary)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 10, 23, 50, 0, 0, time.UTC), next.UTC())

	next, err = j.Next(PassConfirm)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 10, 23, 55, 0, 0, time.UTC), next.UTC())
}

func TestSweepJob_PrimaryPassPublishes(t *testing.T) {
	sweeper := &fakeSweeper{
		report:   model.SweepReport{RunId: "run-1", Checked: 3, Expired: 1, Processed: 1},
		upcoming: []*model.ExpiringAccount{{UserId: "user_1"}},
	}
	notifier := &fakeNotifier{enabled: true}
	j, _ := newJob(t, sweeper, notifier)

	report, err := j.RunPass(t.Context(), PassPrimary)
	require.NoError(t, err)
	assert.Equal(t, "run-1", report.RunId)
	require.Len(t, sweeper.calls, 1)
	assert.False(t, sweeper.calls[0].DryRun)

	require.Len(t, notifier.events, 2)
	assert.Equal(t, notify.EventSweepReport, notifier.events[0].kind)
	assert.Equal(t, notify.EventExpiring, notifier.events[1].kind)
	digest, ok := notifier.events[1].data.(*ExpiringDigest)
	require.True(t, ok)
	assert.Equal(t, 7, digest.Days)
	assert.Equal(t, 1, digest.Count)
	assert.Equal(t, 7, sweeper.days)
}

func TestSweepJob_ArchivesDisposingRuns(t *testing.T) {
	startedAt := time.Date(2025, 1, 10, 23, 50, 0, 0, time.UTC)
	sweeper := &fakeSweeper{report: model.SweepReport{RunId: "run-1", StartedAt: startedAt}}
	store := &fakeStore{}
	j, _ := newJob(t, sweeper, nil)
	j.archive = storage.NewReportArchive(store)

	_, err := j.RunPass(t.Context(), PassPrimary)
	require.NoError(t, err)
	_, err = j.RunPass(t.Context(), PassConfirm)
	require.NoError(t, err)
	_, err = j.Run(t.Context(), service.SweepOptions{DryRun: true})
	require.NoError(t, err)

	require.Len(t, store.objects, 1)
	assert.Contains(t, store.objects, "reports/2025/01/10/run-1-primary.json")

	store.err = errors.New("bucket missing")
	_, err = j.Run(t.Context(), service.SweepOptions{})
	assert.NoError(t, err)
}

func TestSweepJob_NotifierFailureDoesNotFailSweep(t *testing.T) {
	notifier := &fakeNotifier{enabled: true, err: errors.New("webhook down")}
	j, _ := newJob(t, &fakeSweeper{}, notifier)

	_, err := j.RunPass(t.Context(), PassPrimary)
	require.NoError(t, err)
	assert.Len(t, notifier.events, 2)
}

func TestSweepJob_DisabledNotifierIsSkipped(t *testing.T) {
	notifier := &fakeNotifier{}
	j, _ := newJob(t, &fakeSweeper{}, notifier)

	_, err := j.RunPass(t.Context(), PassPrimary)
	require.NoError(t, err)
	assert.Empty(t, notifier.events)
}

func TestSweepJob_ConfirmPassIsDryRun(t *testing.T) {
	sweeper := &fakeSweeper{report: model.SweepReport{Expired: 2}}
	notifier := &fakeNotifier{enabled: true}
	j, _ := newJob(t, sweeper, notifier)

	report, err := j.RunPass(t.Context(), PassConfirm)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Expired)
	require.Len(t, sweeper.calls, 1)
	assert.True(t, sweeper.calls[0].DryRun)
	assert.Empty(t, notifier.events)
}

func TestSweepJob_UnknownPass(t *testing.T) {
	j, _ := newJob(t, &fakeSweeper{}, nil)
	_, err := j.RunPass(t.Context(), "weekly")
	require.Error(t, err)
}

func TestSweepJob_SkipsWhenLocked(t *testing.T) {
	sweeper := &fakeSweeper{}
	j, locker := newJob(t, sweeper, nil)

	unlock, ok, err := locker.TryLock(t.Context(), lockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = j.Run(t.Context(), service.SweepOptions{})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Empty(t, sweeper.calls)

	unlock()
	_, err = j.Run(t.Context(), service.SweepOptions{Action: model.SweepActionDisable})
	require.NoError(t, err)
	require.Len(t, sweeper.calls, 1)
	assert.Equal(t, model.SweepActionDisable, sweeper.calls[0].Action)
}

func TestSweepJob_SweepErrorReleasesLock(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("store offline")}
	j, _ := newJob(t, sweeper, nil)

	_, err := j.Run(t.Context(), service.SweepOptions{})
	require.Error(t, err)

	sweeper.err = nil
	_, err = j.Run(t.Context(), service.SweepOptions{})
	require.NoError(t, err)
}

func TestSweepJob_StopWaitsForRunningSweep(t *testing.T) {
	sweeper := &fakeSweeper{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	j, _ := newJob(t, sweeper, nil)

	fired := make(chan struct{})
	go func() {
		j.fire(PassPrimary)()
		close(fired)
	}()
	<-sweeper.entered

	stopped := make(chan error, 1)
	go func() { stopped <- j.Stop(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a sweep was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(sweeper.block)
	require.NoError(t, <-stopped)
	<-fired

	// no runs after Stop
	j.fire(PassPrimary)()
	assert.Len(t, sweeper.calls, 1)
}

func TestSweepJob_StartDisabled(t *testing.T) {
	j, _ := newJob(t, &fakeSweeper{}, nil)
	j.conf.Enabled = false
	j.Start()
	assert.False(t, j.Running())

	j.conf.Enabled = true
	j.Start()
	assert.True(t, j.Running())
	require.NoError(t, j.Stop(t.Context()))
	assert.False(t, j.Running())
}
