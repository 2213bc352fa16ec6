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

package cron

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	robfig "github.com/robfig/cron"
)

var (
	ErrDuplicateName = errors.New("cron job name already registered")
	ErrUnknownName   = errors.New("cron job name not registered")
)

// Scheduler is a named-job wrapper around robfig/cron. Specs use the
// six-field form with a leading seconds field.
type Scheduler struct {
	mu      sync.RWMutex
	c       *robfig.Cron
	loc     *time.Location
	jobs    map[string]robfig.Schedule
	running bool
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		c:    robfig.NewWithLocation(loc),
		loc:  loc,
		jobs: make(map[string]robfig.Schedule),
	}
}

// AddFunc registers cmd under name.
func (s *Scheduler) AddFunc(name, spec string, cmd func()) error {
	schedule, err := robfig.Parse(spec)
	if err != nil {
		return fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	s.jobs[name] = schedule
	s.c.Schedule(schedule, robfig.FuncJob(cmd))
	return nil
}

// Next returns the next activation of the named job after now.
func (s *Scheduler) Next(name string, now time.Time) (time.Time, error) {
	s.mu.RLock()
	schedule, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	return schedule.Next(now.In(s.loc)), nil
}

// Names returns the registered job names in sorted order.
func (s *Scheduler) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.jobs))
}

func (s *Scheduler) Location() *time.Location {
	return s.loc
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.c.Start()
}

// Stop halts future activations. Jobs already running are not waited for.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.c.Stop()
}

func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
