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
	"github.com/go-arcade/invitekit/pkg/database"
	"gorm.io/gorm"
)

type AccountRepo struct {
	database.IDatabase
}

func NewAccountRepo(db database.IDatabase) IAccountRepository {
	return &AccountRepo{
		IDatabase: db,
	}
}

func (ar *AccountRepo) Get(ctx context.Context, userId string) (*model.Account, error) {
	return ar.first(ctx, "user_id = ?", userId)
}

func (ar *AccountRepo) FindByEmail(ctx context.Context, identityStoreId, email string) (*model.Account, error) {
	return ar.first(ctx, "identity_store_id = ? AND email = ?", identityStoreId, email)
}

func (ar *AccountRepo) ExistsUsername(ctx context.Context, identityStoreId, username string) (bool, error) {
	var account model.Account
	var count int64
	err := ar.Database().WithContext(ctx).Table(account.TableName()).
		Where("identity_store_id = ? AND username = ?", identityStoreId, username).
		Count(&count).Error
	return count > 0, err
}

func (ar *AccountRepo) first(ctx context.Context, query string, args ...any) (*model.Account, error) {
	var account model.Account
	err := ar.Database().WithContext(ctx).Table(account.TableName()).
		Where(query, args...).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (ar *AccountRepo) List(ctx context.Context, filter AccountFilter) ([]*model.Account, error) {
	var account model.Account
	query := ar.Database().WithContext(ctx).Table(account.TableName())
	if filter.IdentityStoreId != "" {
		query = query.Where("identity_store_id = ?", filter.IdentityStoreId)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var accounts []*model.Account
	if err := query.Order("created_at DESC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (ar *AccountRepo) Transition(ctx context.Context, userId string, from, to model.AccountStatus, at time.Time) error {
	var account model.Account
	updates := map[string]any{"status": to}
	if col := stampColumn(to); col != "" {
		updates[col] = at
	}

	res := ar.Database().WithContext(ctx).Table(account.TableName()).
		Where("user_id = ? AND status = ?", userId, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := ar.Get(ctx, userId); err != nil {
			return err
		}
		return ErrStateConflict
	}
	return nil
}

func (ar *AccountRepo) Delete(ctx context.Context, userId string) error {
	var account model.Account
	res := ar.Database().WithContext(ctx).Table(account.TableName()).
		Where("user_id = ?", userId).
		Delete(&model.Account{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (ar *AccountRepo) CountByStatus(ctx context.Context, identityStoreId string) (map[model.AccountStatus]int64, error) {
	var account model.Account
	query := ar.Database().WithContext(ctx).Table(account.TableName()).
		Select("status, COUNT(*) AS total")
	if identityStoreId != "" {
		query = query.Where("identity_store_id = ?", identityStoreId)
	}

	var rows []struct {
		Status model.AccountStatus
		Total  int64
	}
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[model.AccountStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
