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

package directory

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrAlreadyExists is returned by CreateUser when the username is taken.
	ErrAlreadyExists = errors.New("directory user already exists")
	// ErrNotFound is returned when the directory has no such user.
	ErrNotFound = errors.New("directory user not found")
)

// Gateway is the identity directory as seen by the lifecycle services.
// Every call is scoped to one identity store.
type Gateway interface {
	// CreateUser provisions an identity and returns its directory id.
	CreateUser(ctx context.Context, storeId string, user NewUser) (string, error)
	// FindUserByName returns the directory id owning username, or ErrNotFound.
	FindUserByName(ctx context.Context, storeId, username string) (string, error)
	DeleteUser(ctx context.Context, storeId, userId string) error
	EnableUser(ctx context.Context, storeId, userId string) error
	DisableUser(ctx context.Context, storeId, userId string) error
	// AddToGroup is idempotent: an existing membership is not an error.
	AddToGroup(ctx context.Context, storeId, userId, groupId string) error
}

type NewUser struct {
	Username    string
	Email       string
	DisplayName string
	FamilyName  string
}

type Conf struct {
	// IdentityStoreId is the store used when a request names none.
	IdentityStoreId string        `mapstructure:"identityStoreId"`
	UsernamePrefix  string        `mapstructure:"usernamePrefix"`
	FamilyName      string        `mapstructure:"familyName"`
	CallTimeout     time.Duration `mapstructure:"callTimeout"`
	// Groups maps a tier to the directory group its accounts join.
	Groups map[string]string `mapstructure:"groups"`
}

func (c *Conf) SetDefaults() {
	if c.UsernamePrefix == "" {
		c.UsernamePrefix = "kiro_"
	}
	if c.FamilyName == "" {
		c.FamilyName = "Kiro"
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 10 * time.Second
	}
	if c.Groups == nil {
		c.Groups = map[string]string{}
	}
}

// GroupFor returns the group id for tier, if one is configured.
func (c *Conf) GroupFor(tier string) (string, bool) {
	id, ok := c.Groups[tier]
	if !ok {
		// viper lower-cases map keys
		for k, v := range c.Groups {
			if strings.EqualFold(k, tier) {
				return v, v != ""
			}
		}
	}
	return id, ok && id != ""
}
