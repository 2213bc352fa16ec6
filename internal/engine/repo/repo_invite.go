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

	"github.com/go-arcade/invitekit/internal/engine/model"
	"github.com/go-arcade/invitekit/pkg/database"
	"gorm.io/gorm"
)

type InviteRepo struct {
	database.IDatabase
}

func NewInviteRepo(db database.IDatabase) IInviteRepository {
	return &InviteRepo{
		IDatabase: db,
	}
}

func (ir *InviteRepo) Create(ctx context.Context, invites []*model.Invite) error {
	if len(invites) == 0 {
		return nil
	}
	var invite model.Invite
	return ir.Database().WithContext(ctx).Table(invite.TableName()).Create(invites).Error
}

func (ir *InviteRepo) Get(ctx context.Context, token string) (*model.Invite, error) {
	var invite model.Invite
	err := ir.Database().WithContext(ctx).Table(invite.TableName()).
		Where("token = ?", token).
		First(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (ir *InviteRepo) List(ctx context.Context, filter InviteFilter) ([]*model.Invite, error) {
	var invite model.Invite
	query := ir.Database().WithContext(ctx).Table(invite.TableName())
	if filter.IdentityStoreId != "" {
		query = query.Where("identity_store_id = ?", filter.IdentityStoreId)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var invites []*model.Invite
	if err := query.Order("created_at DESC").Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}

func (ir *InviteRepo) Revoke(ctx context.Context, token string) error {
	var invite model.Invite
	res := ir.Database().WithContext(ctx).Table(invite.TableName()).
		Where("token = ? AND status = ?", token, model.InviteStatusPending).
		Update("status", model.InviteStatusRevoked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ir.missingOrConflict(ctx, token)
	}
	return nil
}

func (ir *InviteRepo) Claim(ctx context.Context, claim *Claim) error {
	var invite model.Invite
	return ir.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(claim.Account.TableName()).Create(claim.Account).Error; err != nil {
			return err
		}

		res := tx.Table(invite.TableName()).
			Where("token = ? AND status = ?", claim.Token, model.InviteStatusPending).
			Updates(map[string]any{
				"status":          model.InviteStatusClaimed,
				"claimed_at":      claim.ClaimedAt,
				"claimed_email":   claim.Account.Email,
				"claimed_user_id": claim.Account.UserId,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStateConflict
		}
		return nil
	})
}

func (ir *InviteRepo) missingOrConflict(ctx context.Context, token string) error {
	if _, err := ir.Get(ctx, token); err != nil {
		return err
	}
	return ErrStateConflict
}
