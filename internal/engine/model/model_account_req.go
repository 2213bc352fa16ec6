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

package model

import (
	"fmt"
	"time"
)

type SweepAction string

const (
	SweepActionDisable SweepAction = "disable" // directory identity disabled, account EXPIRED
	SweepActionDelete  SweepAction = "delete"  // directory identity removed, account DELETED
)

func ParseSweepAction(s string) (SweepAction, error) {
	switch a := SweepAction(s); a {
	case SweepActionDisable, SweepActionDelete:
		return a, nil
	default:
		return "", fmt.Errorf("unknown sweep action %q, want disable or delete", s)
	}
}

// TargetStatus is the account status an action leaves behind.
func (a SweepAction) TargetStatus() AccountStatus {
	if a == SweepActionDelete {
		return AccountStatusDeleted
	}
	return AccountStatusExpired
}

const (
	SweepOutcomeSuccess = "success"
	SweepOutcomeFailed  = "failed"
	SweepOutcomeDue     = "due"
)

type SweepDetail struct {
	UserId   string      `json:"userId"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Action   SweepAction `json:"action"`
	Status   string      `json:"status"`
	Error    string      `json:"error,omitempty"`
}

type SweepReport struct {
	RunId      string         `json:"runId"`
	Action     SweepAction    `json:"action"`
	DryRun     bool           `json:"dryRun"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Checked    int            `json:"checked"`
	Expired    int            `json:"expired"`
	Processed  int            `json:"processed"`
	Failed     int            `json:"failed"`
	Details    []*SweepDetail `json:"details"`
}

type ExpiringAccount struct {
	UserId    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Tier      string    `json:"tier"`
	ExpiresAt time.Time `json:"expiresAt"`
	Deadline  time.Time `json:"deadline"`
	DaysLeft  int       `json:"daysLeft"`
}

type AccountStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Expired  int64 `json:"expired"`
	Disabled int64 `json:"disabled"`
	Deleted  int64 `json:"deleted"`
}

type InviteStats struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Claimed int64 `json:"claimed"`
	Revoked int64 `json:"revoked"`
	Expired int64 `json:"expired"`
}

type Stats struct {
	Accounts AccountStats `json:"accounts"`
	Invites  InviteStats  `json:"invites"`
}
