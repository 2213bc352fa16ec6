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

	"github.com/go-arcade/invitekit/internal/engine/model"
	"github.com/go-arcade/invitekit/pkg/database"
)

// GormStore backs the repositories with sqlite or mysql.
type GormStore struct {
	manager database.Manager
}

func NewGormStore(manager database.Manager) *GormStore {
	return &GormStore{manager: manager}
}

func (s *GormStore) Name() string {
	return s.manager.Driver()
}

func (s *GormStore) Init(ctx context.Context) error {
	return s.manager.DB().WithContext(ctx).AutoMigrate(&model.Invite{}, &model.Account{})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.manager.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	return s.manager.Close()
}

// NewRepositories builds the gorm-backed capability set.
func NewRepositories(manager database.Manager) *Repositories {
	db := database.NewDatabaseAdapter(manager)
	return &Repositories{
		Invite:  NewInviteRepo(db),
		Account: NewAccountRepo(db),
		Store:   NewGormStore(manager),
	}
}
