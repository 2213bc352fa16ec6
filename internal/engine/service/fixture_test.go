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
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/invitekit/internal/engine/model"
	"github.com/go-arcade/invitekit/internal/engine/repo"
	"github.com/go-arcade/invitekit/internal/pkg/directory"
	"github.com/go-arcade/invitekit/pkg/database"
	"github.com/stretchr/testify/require"
)

const testStore = "d-test"

type fakeGateway struct {
	mu sync.Mutex

	nextId    int
	users     map[string]string // username -> directory id
	createErr error
	findErr   error
	deleteErr map[string]error
	// deleteFlaky fails the first n deletes of a user
	deleteFlaky map[string]int
	deleteCalls map[string]int
	updateErr   error
	groupErr    error

	created  []directory.NewUser
	deleted  []string
	enabled  []string
	disabled []string
	groups   []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users:       map[string]string{},
		deleteErr:   map[string]error{},
		deleteFlaky: map[string]int{},
		deleteCalls: map[string]int{},
	}
}

func (g *fakeGateway) CreateUser(_ context.Context, _ string, user directory.NewUser) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return "", g.createErr
	}
	if _, ok := g.users[user.Username]; ok {
		return "", directory.ErrAlreadyExists
	}
	g.nextId++
	id := fmt.Sprintf("dir-%d", g.nextId)
	g.users[user.Username] = id
	g.created = append(g.created, user)
	return id, nil
}

func (g *fakeGateway) FindUserByName(_ context.Context, _ string, username string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.findErr != nil {
		return "", g.findErr
	}
	id, ok := g.users[username]
	if !ok {
		return "", directory.ErrNotFound
	}
	return id, nil
}

func (g *fakeGateway) DeleteUser(_ context.Context, _ string, userId string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleteCalls[userId]++
	if err := g.deleteErr[userId]; err != nil {
		return err
	}
	if g.deleteFlaky[userId] > 0 {
		g.deleteFlaky[userId]--
		return errors.New("throttled")
	}
	g.deleted = append(g.deleted, userId)
	return nil
}

func (g *fakeGateway) EnableUser(_ context.Context, _ string, userId string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.updateErr != nil {
		return g.updateErr
	}
	g.enabled = append(g.enabled, userId)
	return nil
}

func (g *fakeGateway) DisableUser(_ context.Context, _ string, userId string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.updateErr != nil {
		return g.updateErr
	}
	g.disabled = append(g.disabled, userId)
	return nil
}

func (g *fakeGateway) AddToGroup(_ context.Context, _ string, userId, groupId string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.groupErr != nil {
		return g.groupErr
	}
	g.groups = append(g.groups, userId+"@"+groupId)
	return nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type fixture struct {
	repos    *repo.Repositories
	gateway  *fakeGateway
	clock    *clock
	invites  *InviteService
	accounts *AccountService
	dirConf  *directory.Conf
	sweep    *SweepConf
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	manager, err := database.NewManager(database.Database{
		Driver: database.DriverSQLite,
		SQLite: database.SQLiteConfig{Path: "file::memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	repos := repo.NewRepositories(manager)
	require.NoError(t, repos.Store.Init(context.Background()))

	dirConf := &directory.Conf{IdentityStoreId: testStore, Groups: map[string]string{"Pro": "g-pro"}}
	dirConf.SetDefaults()
	inviteConf := &InviteConf{FrontendURL: "https://invite.example.com/"}
	inviteConf.SetDefaults()
	sweepConf := &SweepConf{Timezone: "UTC", RetryBackoff: time.Millisecond}
	sweepConf.SetDefaults()
	require.NoError(t, sweepConf.Validate())

	gateway := newFakeGateway()
	services := ProvideServices(repos, gateway, dirConf, inviteConf, sweepConf)
	c := &clock{t: time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)}
	services.Invite.now = c.Now
	services.Account.now = c.Now

	return &fixture{
		repos:    repos,
		gateway:  gateway,
		clock:    c,
		invites:  services.Invite,
		accounts: services.Account,
		dirConf:  dirConf,
		sweep:    sweepConf,
	}
}

func (f *fixture) createInvite(t *testing.T, req *model.CreateInvitesReq) *model.InviteView {
	t.Helper()
	if req == nil {
		req = &model.CreateInvitesReq{Count: 1}
	}
	resp, err := f.invites.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Invites)
	return resp.Invites[0]
}

func (f *fixture) redeem(t *testing.T, email string) *model.RedeemResult {
	t.Helper()
	invite := f.createInvite(t, nil)
	return f.invites.Redeem(context.Background(), invite.Token, &model.RedeemReq{Email: email})
}

// seedAccount stores an account directly, bypassing the directory.
func (f *fixture) seedAccount(t *testing.T, account *model.Account) {
	t.Helper()
	ctx := context.Background()
	token := "seed-" + account.UserId
	require.NoError(t, f.repos.Invite.Create(ctx, []*model.Invite{{
		Token:           token,
		Status:          model.InviteStatusPending,
		Tier:            "Pro",
		EntitlementDays: 90,
		CreatedAt:       f.clock.Now().UTC(),
		IdentityStoreId: testStore,
	}}))
	if account.Status == "" {
		account.Status = model.AccountStatusActive
	}
	if account.IdentityStoreId == "" {
		account.IdentityStoreId = testStore
	}
	if account.Username == "" {
		account.Username = "kiro_" + account.UserId
	}
	account.InviteToken = token
	require.NoError(t, f.repos.Invite.Claim(ctx, &repo.Claim{Token: token, Account: account, ClaimedAt: f.clock.Now().UTC()}))
}

func timePtr(t time.Time) *time.Time {
	return &t
}
