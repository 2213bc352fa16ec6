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

package repo

import (
	"context"
	"errors"
	"time"

	"github.com/go-arcade/invitekit/internal/engine/model"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStateConflict is returned when a conditional write finds the
	// record in a different status than expected.
	ErrStateConflict = errors.New("record status changed")
)

// IStore exposes backend-level operations.
type IStore interface {
	Name() string
	// Init creates tables. It is idempotent.
	Init(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Repositories is the storage capability set used by the services.
type Repositories struct {
	Invite  IInviteRepository
	Account IAccountRepository
	Store   IStore
}

// InviteFilter selects invites by tenant and stored status. Empty fields match all.
type InviteFilter struct {
	IdentityStoreId string
	Status          model.InviteStatus
}

// AccountFilter selects accounts by tenant and status. Empty fields match all.
type AccountFilter struct {
	IdentityStoreId string
	Status          model.AccountStatus
}

// Claim is the atomic redemption write: insert Account and move the
// invite from PENDING to CLAIMED.
type Claim struct {
	Token     string
	Account   *model.Account
	ClaimedAt time.Time
}

type IInviteRepository interface {
	// Create persists a batch of new invites.
	Create(ctx context.Context, invites []*model.Invite) error
	Get(ctx context.Context, token string) (*model.Invite, error)
	// List returns matching invites newest first.
	List(ctx context.Context, filter InviteFilter) ([]*model.Invite, error)
	// Revoke moves a PENDING invite to REVOKED.
	Revoke(ctx context.Context, token string) error
	// Claim commits a redemption. ErrStateConflict means the invite was no
	// longer PENDING and nothing was written.
	Claim(ctx context.Context, claim *Claim) error
}

type IAccountRepository interface {
	Get(ctx context.Context, userId string) (*model.Account, error)
	FindByEmail(ctx context.Context, identityStoreId, email string) (*model.Account, error)
	ExistsUsername(ctx context.Context, identityStoreId, username string) (bool, error)
	// List returns matching accounts newest first.
	List(ctx context.Context, filter AccountFilter) ([]*model.Account, error)
	// Transition moves an account from one status to another if it is still
	// in from, stamping expiredAt or deletedAt as the target requires.
	Transition(ctx context.Context, userId string, from, to model.AccountStatus, at time.Time) error
	Delete(ctx context.Context, userId string) error
	CountByStatus(ctx context.Context, identityStoreId string) (map[model.AccountStatus]int64, error)
}

// stampColumn names the timestamp set when an account enters a status.
func stampColumn(to model.AccountStatus) string {
	switch to {
	case model.AccountStatusExpired:
		return "expired_at"
	case model.AccountStatusDeleted:
		return "deleted_at"
	case model.AccountStatusActive, model.AccountStatusDisabled:
		return ""
	default:
		return ""
	}
}
