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

	"github.com/go-arcade/invitekit/pkg/metrics"
	"github.com/go-arcade/invitekit/pkg/statemachine"
)

// AccountStatus is the lifecycle state of a provisioned account.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusExpired  AccountStatus = "EXPIRED"  // disabled by the sweep
	AccountStatusDisabled AccountStatus = "DISABLED" // disabled by an admin
	AccountStatusDeleted  AccountStatus = "DELETED"  // directory identity removed by the sweep
)

var accountStateMachine = statemachine.New(AccountStatusActive).
	Allow(AccountStatusActive, AccountStatusExpired, AccountStatusDeleted, AccountStatusDisabled).
	Allow(AccountStatusDisabled, AccountStatusActive).
	OnTransition(func(from, to AccountStatus) {
		metrics.RecordAccountTransition(string(from), string(to))
	})

// AccountStateMachine returns the transition table for account states.
func AccountStateMachine() *statemachine.StateMachine[AccountStatus] {
	return accountStateMachine
}

// ParseAccountStatus validates a status read from a request or a store.
func ParseAccountStatus(s string) (AccountStatus, error) {
	status := AccountStatus(s)
	if !accountStateMachine.Known(status) {
		return "", fmt.Errorf("unknown account status %q, want one of %v", s, accountStateMachine.States())
	}
	return status, nil
}

// Account is a directory identity provisioned by redeeming an invite.
type Account struct {
	UserId          string        `gorm:"column:user_id;primaryKey;size:64" json:"userId" dynamodbav:"user_id"`
	Username        string        `gorm:"column:username;size:64;index:idx_account_store_username" json:"username" dynamodbav:"username"`
	Email           string        `gorm:"column:email;size:255;index:idx_account_store_email" json:"email" dynamodbav:"email"`
	DisplayName     string        `gorm:"column:display_name;size:128" json:"displayName" dynamodbav:"display_name"`
	Status          AccountStatus `gorm:"column:status;size:16;index" json:"status" dynamodbav:"status"`
	Tier            string        `gorm:"column:tier;size:32" json:"tier" dynamodbav:"tier"`
	DirectoryUserId string        `gorm:"column:directory_user_id;size:64" json:"directoryUserId" dynamodbav:"idc_user_id"`
	CreatedAt       time.Time     `gorm:"column:created_at" json:"createdAt" dynamodbav:"created_at"`
	ExpiresAt       *time.Time    `gorm:"column:expires_at" json:"expiresAt,omitempty" dynamodbav:"expires_at,omitempty"`
	ExpiredAt       *time.Time    `gorm:"column:expired_at" json:"expiredAt,omitempty" dynamodbav:"expired_at,omitempty"`
	DeletedAt       *time.Time    `gorm:"column:deleted_at" json:"deletedAt,omitempty" dynamodbav:"deleted_at,omitempty"`
	InviteToken     string        `gorm:"column:invite_token;size:64" json:"inviteToken,omitempty" dynamodbav:"invite_token,omitempty"`
	IdentityStoreId string        `gorm:"column:identity_store_id;size:64;index:idx_account_store_username;index:idx_account_store_email" json:"identityStoreId" dynamodbav:"identity_store_id"`
	SsoUrl          string        `gorm:"column:sso_url;size:255" json:"ssoUrl,omitempty" dynamodbav:"sso_url,omitempty"`
}

func (Account) TableName() string {
	return "t_account"
}
