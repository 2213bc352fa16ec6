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

package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-arcade/invitekit/internal/engine/common"
	"github.com/go-arcade/invitekit/internal/engine/model"
	"github.com/go-arcade/invitekit/pkg/log"
)

type InviteConf struct {
	// FrontendURL prefixes the claim link: {FrontendURL}/claim/{token}.
	FrontendURL            string `mapstructure:"frontendUrl"`
	DefaultTier            string `mapstructure:"defaultTier"`
	DefaultEntitlementDays int    `mapstructure:"defaultEntitlementDays"`
}

func (c *InviteConf) SetDefaults() {
	if c.FrontendURL == "" {
		c.FrontendURL = "http://localhost:3000"
	}
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
	if c.DefaultTier == "" {
		c.DefaultTier = model.DefaultTier
	}
	if c.DefaultEntitlementDays <= 0 {
		c.DefaultEntitlementDays = model.DefaultEntitlementDays
	}
}

func (c *InviteConf) ClaimURL(token string) string {
	return c.FrontendURL + "/claim/" + token
}

type SweepConf struct {
	Enabled     bool          `mapstructure:"enabled"`
	Action      string        `mapstructure:"action"`
	Timezone    string        `mapstructure:"timezone"`
	PrimarySpec string        `mapstructure:"primarySpec"`
	ConfirmSpec string        `mapstructure:"confirmSpec"`
	CallTimeout time.Duration `mapstructure:"callTimeout"`
	// CallAttempts bounds the directory calls made per due account
	CallAttempts int           `mapstructure:"callAttempts"`
	RetryBackoff time.Duration `mapstructure:"retryBackoff"`
	// Concurrency bounds the due accounts disposed at once
	Concurrency int           `mapstructure:"concurrency"`
	LockTTL     time.Duration `mapstructure:"lockTTL"`

	mu  sync.RWMutex
	loc *time.Location
}

func (c *SweepConf) SetDefaults() {
	if c.Action == "" {
		c.Action = string(model.SweepActionDelete)
	}
	if c.PrimarySpec == "" {
		c.PrimarySpec = "0 50 23 * * *"
	}
	if c.ConfirmSpec == "" {
		c.ConfirmSpec = "0 55 23 * * *"
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 10 * time.Second
	}
	if c.CallAttempts <= 0 {
		c.CallAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 30 * time.Minute
	}
}

func (c *SweepConf) Validate() error {
	if _, err := model.ParseSweepAction(c.Action); err != nil {
		return fmt.Errorf("sweep.action: %w", err)
	}
	loc, err := common.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("sweep.timezone: %w", err)
	}
	c.mu.Lock()
	c.loc = loc
	c.mu.Unlock()
	return nil
}

// Location is the zone used for calendar dates and schedules.
func (c *SweepConf) Location() *time.Location {
	c.mu.RLock()
	loc := c.loc
	c.mu.RUnlock()
	if loc != nil {
		return loc
	}
	loc, err := common.LoadLocation(c.Timezone)
	if err != nil {
		log.Warnw("falling back to local timezone", "timezone", c.Timezone, "error", err)
		loc = time.Local
	}
	c.mu.Lock()
	c.loc = loc
	c.mu.Unlock()
	return loc
}

// CurrentAction returns the configured disposal action. It is re-read on
// every sweep so a config reload takes effect at the next run.
func (c *SweepConf) CurrentAction() model.SweepAction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	action, err := model.ParseSweepAction(c.Action)
	if err != nil {
		return model.SweepActionDelete
	}
	return action
}

func (c *SweepConf) SetAction(action model.SweepAction) {
	c.mu.Lock()
	c.Action = string(action)
	c.mu.Unlock()
}
