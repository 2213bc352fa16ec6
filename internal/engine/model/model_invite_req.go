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
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	MaxInviteBatch         = 100
	MaxEntitlementDays     = 3650
	DefaultTier            = "Pro"
	DefaultEntitlementDays = 90
)

// CreateInvitesReq 批量创建邀请
type CreateInvitesReq struct {
	Count           int    `json:"count"`
	Tier            string `json:"tier"`
	EntitlementDays int    `json:"entitlementDays"`
	// ExpiresDate is a YYYY-MM-DD calendar date; it wins over EntitlementDays.
	ExpiresDate     string `json:"expiresDate,omitempty"`
	Note            string `json:"note,omitempty"`
	IdentityStoreId string `json:"identityStoreId,omitempty"`
	SsoUrl          string `json:"ssoUrl,omitempty"`
}

func (r CreateInvitesReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Count, validation.Required, validation.Min(1), validation.Max(MaxInviteBatch)),
		validation.Field(&r.Tier, validation.Required, validation.Length(1, 32)),
		validation.Field(&r.EntitlementDays, validation.Required, validation.Min(1), validation.Max(MaxEntitlementDays)),
		validation.Field(&r.ExpiresDate, validation.Date("2006-01-02")),
		validation.Field(&r.Note, validation.Length(0, 256)),
		validation.Field(&r.IdentityStoreId, validation.Required),
	)
}

// InviteView is an invite as shown to admins: effective status plus claim link.
type InviteView struct {
	Invite
	Status   InviteStatus `json:"status"`
	ClaimUrl string       `json:"claimUrl"`
}

type CreateInvitesResp struct {
	Count   int           `json:"count"`
	Invites []*InviteView `json:"invites"`
}

// InviteInfo is the public projection of an invite before redemption.
type InviteInfo struct {
	Valid           bool       `json:"valid"`
	Error           string     `json:"error,omitempty"`
	Message         string     `json:"message,omitempty"`
	Tier            string     `json:"tier,omitempty"`
	EntitlementDays int        `json:"entitlementDays,omitempty"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
	SsoUrl          string     `json:"ssoUrl,omitempty"`
}

// RedeemReq 学生认领邀请
type RedeemReq struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// RedeemResult is always returned to the claimant; Success false carries
// an error code and a readable message.
type RedeemResult struct {
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
	Message   string     `json:"message,omitempty"`
	UserId    string     `json:"userId,omitempty"`
	Username  string     `json:"username,omitempty"`
	Email     string     `json:"email,omitempty"`
	Tier      string     `json:"tier,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	SsoUrl    string     `json:"ssoUrl,omitempty"`
}
