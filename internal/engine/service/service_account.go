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
	"slices"
	"strings"
	"time"

	"github.com/go-arcade/invitekit/internal/engine/common"
	"github.com/go-arcade/invitekit/internal/engine/model"
	"github.com/go-arcade/invitekit/internal/engine/repo"
	"github.com/go-arcade/invitekit/internal/pkg/directory"
	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/go-arcade/invitekit/pkg/statemachine"
)

const (
	DefaultUpcomingDays = 7
	MaxUpcomingDays     = 365
)

type AccountService struct {
	accounts repo.IAccountRepository
	invites  repo.IInviteRepository
	gateway  directory.Gateway
	dirConf  *directory.Conf
	sweep    *SweepConf
	now      func() time.Time
}

func NewAccountService(repos *repo.Repositories, gateway directory.Gateway, dirConf *directory.Conf, sweep *SweepConf) *AccountService {
	return &AccountService{
		accounts: repos.Account,
		invites:  repos.Invite,
		gateway:  gateway,
		dirConf:  dirConf,
		sweep:    sweep,
		now:      time.Now,
	}
}

func (s *AccountService) storeOf(account *model.Account) string {
	if account.IdentityStoreId != "" {
		return account.IdentityStoreId
	}
	return s.dirConf.IdentityStoreId
}

func (s *AccountService) List(ctx context.Context, storeId, status string) ([]*model.Account, error) {
	filter := repo.AccountFilter{IdentityStoreId: storeId}
	if status != "" {
		parsed, err := model.ParseAccountStatus(strings.ToUpper(status))
		if err != nil {
			return nil, newError(CodeInvalidArgument, err.Error(), err)
		}
		filter.Status = parsed
	}
	accounts, err := s.accounts.List(ctx, filter)
	if err != nil {
		log.Errorw("list accounts failed", "storeId", storeId, "status", status, "error", err)
		return nil, newError(CodeInternal, "", err)
	}
	return accounts, nil
}

func (s *AccountService) get(ctx context.Context, userId string) (*model.Account, error) {
	account, err := s.accounts.Get(ctx, userId)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, newError(CodeNotFound, "account not found", err)
	}
	if err != nil {
		log.Errorw("get account failed", "userId", userId, "error", err)
		return nil, newError(CodeInternal, "", err)
	}
	return account, nil
}

// Disable revokes access of an ACTIVE account.
func (s *AccountService) Disable(ctx context.Context, userId string) error {
	return s.setStatus(ctx, userId, model.AccountStatusDisabled, s.gateway.DisableUser)
}

// Enable restores a DISABLED account.
func (s *AccountService) Enable(ctx context.Context, userId string) error {
	return s.setStatus(ctx, userId, model.AccountStatusActive, s.gateway.EnableUser)
}

func (s *AccountService) setStatus(ctx context.Context, userId string, to model.AccountStatus, call func(ctx context.Context, storeId, userId string) error) error {
	account, err := s.get(ctx, userId)
	if err != nil {
		return err
	}
	sm := model.AccountStateMachine()
	if !sm.CanTransition(account.Status, to) {
		msg := fmt.Sprintf("account is %s, allowed next states: %v", account.Status, sm.NextStates(account.Status))
		return newError(CodeInvalidState, msg, statemachine.ErrInvalidTransition)
	}

	if account.DirectoryUserId != "" {
		callCtx, cancel := context.WithTimeout(ctx, s.sweep.CallTimeout)
		err := call(callCtx, s.storeOf(account), account.DirectoryUserId)
		cancel()
		if err != nil {
			log.Errorw("directory status change failed", "userId", userId, "to", to, "error", err)
			return newError(CodeDirectoryUnavailable, "", err)
		}
	}

	switch err := s.accounts.Transition(ctx, userId, account.Status, to, s.now().UTC()); {
	case errors.Is(err, repo.ErrNotFound):
		return newError(CodeNotFound, "account not found", err)
	case errors.Is(err, repo.ErrStateConflict):
		return newError(CodeInvalidState, "account status changed concurrently", err)
	case err != nil:
		log.Errorw("update account status failed", "userId", userId, "to", to, "error", err)
		return newError(CodeInternal, "", err)
	}
	_ = sm.Transition(account.Status, to)
	log.Infow("account status changed", "userId", userId, "from", account.Status, "to", to)
	return nil
}

// Delete removes the directory identity and then the account record.
func (s *AccountService) Delete(ctx context.Context, userId string) error {
	account, err := s.get(ctx, userId)
	if err != nil {
		return err
	}

	if account.Status != model.AccountStatusDeleted && account.DirectoryUserId != "" {
		callCtx, cancel := context.WithTimeout(ctx, s.sweep.CallTimeout)
		err := s.gateway.DeleteUser(callCtx, s.storeOf(account), account.DirectoryUserId)
		cancel()
		if err != nil && !errors.Is(err, directory.ErrNotFound) {
			log.Errorw("delete directory user failed", "userId", userId, "directoryUserId", account.DirectoryUserId, "error", err)
			return newError(CodeDirectoryUnavailable, "", err)
		}
	}

	if err := s.accounts.Delete(ctx, userId); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return newError(CodeNotFound, "account not found", err)
		}
		log.Errorw("delete account failed", "userId", userId, "error", err)
		return newError(CodeInternal, "", err)
	}
	log.Infow("account deleted", "userId", userId, "username", account.Username)
	return nil
}

// Upcoming lists ACTIVE accounts whose deadline falls in [now, now+days],
// soonest first.
func (s *AccountService) Upcoming(ctx context.Context, days int) ([]*model.ExpiringAccount, error) {
	if days == 0 {
		days = DefaultUpcomingDays
	}
	if days < 1 || days > MaxUpcomingDays {
		return nil, newError(CodeInvalidArgument, fmt.Sprintf("days must be between 1 and %d", MaxUpcomingDays), nil)
	}

	accounts, err := s.accounts.List(ctx, repo.AccountFilter{Status: model.AccountStatusActive})
	if err != nil {
		log.Errorw("list active accounts failed", "error", err)
		return nil, newError(CodeInternal, "", err)
	}

	now := s.now()
	loc := s.sweep.Location()
	horizon := now.AddDate(0, 0, days)
	expiring := make([]*model.ExpiringAccount, 0)
	for _, account := range accounts {
		if account.ExpiresAt == nil {
			continue
		}
		deadline := common.PinDeadline(*account.ExpiresAt, loc)
		if deadline.Before(now) || deadline.After(horizon) {
			continue
		}
		expiring = append(expiring, &model.ExpiringAccount{
			UserId:    account.UserId,
			Username:  account.Username,
			Email:     account.Email,
			Tier:      account.Tier,
			ExpiresAt: *account.ExpiresAt,
			Deadline:  deadline,
			DaysLeft:  common.DaysRemaining(deadline, now),
		})
	}
	slices.SortStableFunc(expiring, func(a, b *model.ExpiringAccount) int {
		if a.DaysLeft != b.DaysLeft {
			return a.DaysLeft - b.DaysLeft
		}
		return a.Deadline.Compare(b.Deadline)
	})
	return expiring, nil
}

// Stats counts accounts by stored status and invites by effective status.
func (s *AccountService) Stats(ctx context.Context, storeId string) (*model.Stats, error) {
	counts, err := s.accounts.CountByStatus(ctx, storeId)
	if err != nil {
		log.Errorw("count accounts failed", "storeId", storeId, "error", err)
		return nil, newError(CodeInternal, "", err)
	}
	invites, err := s.invites.List(ctx, repo.InviteFilter{IdentityStoreId: storeId})
	if err != nil {
		log.Errorw("list invites failed", "storeId", storeId, "error", err)
		return nil, newError(CodeInternal, "", err)
	}

	stats := &model.Stats{}
	for status, n := range counts {
		stats.Accounts.Total += n
		switch status {
		case model.AccountStatusActive:
			stats.Accounts.Active = n
		case model.AccountStatusExpired:
			stats.Accounts.Expired = n
		case model.AccountStatusDisabled:
			stats.Accounts.Disabled = n
		case model.AccountStatusDeleted:
			stats.Accounts.Deleted = n
		}
	}

	now := s.now()
	for _, invite := range invites {
		stats.Invites.Total++
		switch invite.EffectiveStatus(now) {
		case model.InviteStatusPending:
			stats.Invites.Pending++
		case model.InviteStatusClaimed:
			stats.Invites.Claimed++
		case model.InviteStatusRevoked:
			stats.Invites.Revoked++
		case model.InviteStatusExpired:
			stats.Invites.Expired++
		}
	}
	return stats, nil
}
