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

	"github.com/go-arcade/invitekit/pkg/statemachine"
)

// InviteStatus is the lifecycle state of an invite.
type InviteStatus string

const (
	InviteStatusPending InviteStatus = "PENDING" // waiting to be redeemed
	InviteStatusClaimed InviteStatus = "CLAIMED" // redeemed, immutable
	InviteStatusRevoked InviteStatus = "REVOKED" // revoked by admin, immutable
	// InviteStatusExpired is derived at read time and never written.
	InviteStatusExpired InviteStatus = "EXPIRED"
)

var inviteStateMachine = statemachine.New(InviteStatusPending, InviteStatusClaimed, InviteStatusRevoked, InviteStatusExpired).
	Allow(InviteStatusPending, InviteStatusClaimed, InviteStatusRevoked)

// InviteStateMachine returns the transition table for stored invite states.
func InviteStateMachine() *statemachine.StateMachine[InviteStatus] {
	return inviteStateMachine
}

// ParseInviteStatus accepts the stored and derived invite states.
func ParseInviteStatus(s string) (InviteStatus, error) {
	status := InviteStatus(s)
	if !inviteStateMachine.Known(status) {
		return "", fmt.Errorf("unknown invite status %q, want one of %v", s, inviteStateMachine.States())
	}
	return status, nil
}

// Invite is a single-use redemption token.
type Invite struct {
	Token           string       `gorm:"column:token;primaryKey;size:64" json:"token" dynamodbav:"token"`
	Status          InviteStatus `gorm:"column:status;size:16;index" json:"status" dynamodbav:"status"`
	Tier            string       `gorm:"column:tier;size:32" json:"tier" dynamodbav:"tier"`
	EntitlementDays int          `gorm:"column:entitlement_days" json:"entitlementDays" dynamodbav:"entitlement_days"`
	CreatedAt       time.Time    `gorm:"column:created_at" json:"createdAt" dynamodbav:"created_at"`
	ExpiresAt       *time.Time   `gorm:"column:expires_at" json:"expiresAt,omitempty" dynamodbav:"expires_at,omitempty"`
	ClaimedAt       *time.Time   `gorm:"column:claimed_at" json:"claimedAt,omitempty" dynamodbav:"claimed_at,omitempty"`
	ClaimedEmail    string       `gorm:"column:claimed_email;size:255" json:"claimedEmail,omitempty" dynamodbav:"claimed_email,omitempty"`
	ClaimedUserId   string       `gorm:"column:claimed_user_id;size:64" json:"claimedUserId,omitempty" dynamodbav:"claimed_user_id,omitempty"`
	Note            string       `gorm:"column:note;size:256" json:"note,omitempty" dynamodbav:"note,omitempty"`
	IdentityStoreId string       `gorm:"column:identity_store_id;size:64;index" json:"identityStoreId" dynamodbav:"identity_store_id"`
	SsoUrl          string       `gorm:"column:sso_url;size:255" json:"ssoUrl,omitempty" dynamodbav:"sso_url,omitempty"`
}

func (Invite) TableName() string {
	return "t_invite"
}

// IsExpired reports whether the invite deadline has passed.
// Only PENDING invites are ever reported as expired.
func (i *Invite) IsExpired(now time.Time) bool {
	return i.Status == InviteStatusPending && i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}

// EffectiveStatus is the status callers see: a PENDING invite past its
// deadline reads as EXPIRED.
func (i *Invite) EffectiveStatus(now time.Time) InviteStatus {
	if i.IsExpired(now) {
		return InviteStatusExpired
	}
	return i.Status
}
