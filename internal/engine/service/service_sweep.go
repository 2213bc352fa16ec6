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

	"github.com/go-arcade/invitekit/internal/engine/common"
	"github.com/go-arcade/invitekit/internal/engine/model"
	"github.com/go-arcade/invitekit/internal/engine/repo"
	"github.com/go-arcade/invitekit/internal/pkg/directory"
	"github.com/go-arcade/invitekit/pkg/id"
	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/go-arcade/invitekit/pkg/metrics"
	"github.com/go-arcade/invitekit/pkg/retry"
	"golang.org/x/sync/errgroup"
)

type SweepOptions struct {
	// Action overrides the configured action when set.
	Action model.SweepAction
	// DryRun reports due accounts without touching the directory or the store.
	DryRun bool
}

// Sweep disposes of every ACTIVE account whose deadline has passed. A
// failure on one account is recorded in the report and the sweep moves on.
func (s *AccountService) Sweep(ctx context.Context, opts SweepOptions) (*model.SweepReport, error) {
	action := opts.Action
	if action == "" {
		action = s.sweep.CurrentAction()
	}
	report := &model.SweepReport{
		RunId:     id.GetUlid(),
		Action:    action,
		DryRun:    opts.DryRun,
		StartedAt: s.now().UTC(),
		Details:   make([]*model.SweepDetail, 0),
	}

	accounts, err := s.accounts.List(ctx, repo.AccountFilter{Status: model.AccountStatusActive})
	if err != nil {
		log.Errorw("sweep list active accounts failed", "runId", report.RunId, "error", err)
		return nil, fmt.Errorf("list active accounts: %w", err)
	}
	report.Checked = len(accounts)

	loc := s.sweep.Location()
	var due []*model.Account
	for _, account := range accounts {
		if account.Status != model.AccountStatusActive || account.ExpiresAt == nil {
			continue
		}
		if !common.IsDue(*account.ExpiresAt, s.now(), loc) {
			continue
		}
		due = append(due, account)
		status := ""
		if opts.DryRun {
			status = model.SweepOutcomeDue
		}
		report.Details = append(report.Details, &model.SweepDetail{
			UserId:   account.UserId,
			Username: account.Username,
			Email:    account.Email,
			Action:   action,
			Status:   status,
		})
	}
	report.Expired = len(due)

	if !opts.DryRun {
		g := new(errgroup.Group)
		g.SetLimit(s.sweep.Concurrency)
		for i, account := range due {
			detail := report.Details[i]
			g.Go(func() error {
				s.disposeOne(ctx, report.RunId, account, action, detail)
				return nil
			})
		}
		_ = g.Wait()

		for _, detail := range report.Details {
			if detail.Status == model.SweepOutcomeSuccess {
				report.Processed++
			} else {
				report.Failed++
			}
		}
	}

	report.FinishedAt = s.now().UTC()
	if !opts.DryRun {
		metrics.RecordSweepAccounts(string(action), report.Processed, report.Failed)
	}
	log.Infow("sweep finished",
		"runId", report.RunId,
		"action", action,
		"dryRun", opts.DryRun,
		"checked", report.Checked,
		"expired", report.Expired,
		"processed", report.Processed,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *AccountService) disposeOne(ctx context.Context, runId string, account *model.Account, action model.SweepAction, detail *model.SweepDetail) {
	err := ctx.Err()
	if err == nil {
		err = s.dispose(ctx, account, action)
	}
	if err != nil {
		detail.Status = model.SweepOutcomeFailed
		detail.Error = err.Error()
		log.Errorw("sweep account failed", "runId", runId, "userId", account.UserId, "username", account.Username, "action", action, "error", err)
		return
	}
	detail.Status = model.SweepOutcomeSuccess
	log.Infow("sweep account processed", "runId", runId, "userId", account.UserId, "username", account.Username, "action", action)
}

// dispose applies action to one due account: directory first, then a
// status write conditional on the account still being ACTIVE.
func (s *AccountService) dispose(ctx context.Context, account *model.Account, action model.SweepAction) error {
	if account.DirectoryUserId == "" {
		return errors.New("account has no directory user id")
	}

	var call func(ctx context.Context, storeId, userId string) error
	switch action {
	case model.SweepActionDelete:
		call = s.gateway.DeleteUser
	case model.SweepActionDisable:
		call = s.gateway.DisableUser
	default:
		return fmt.Errorf("unknown sweep action %q", action)
	}

	err := retry.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.sweep.CallTimeout)
		defer cancel()
		return call(callCtx, s.storeOf(account), account.DirectoryUserId)
	},
		retry.WithMaxAttempts(s.sweep.CallAttempts),
		retry.WithBackoff(retry.Exponential(s.sweep.RetryBackoff, 10*s.sweep.RetryBackoff)),
		retry.WithJitter(retry.FullJitter),
		retry.WithRetryIf(func(err error) bool {
			return ctx.Err() == nil && !errors.Is(err, directory.ErrNotFound)
		}),
	)
	if action == model.SweepActionDelete && errors.Is(err, directory.ErrNotFound) {
		err = nil
	}
	if err != nil {
		return err
	}

	to := action.TargetStatus()
	if err := s.accounts.Transition(ctx, account.UserId, model.AccountStatusActive, to, s.now().UTC()); err != nil {
		if errors.Is(err, repo.ErrStateConflict) {
			return errors.New("account status changed during sweep")
		}
		return fmt.Errorf("update account status: %w", err)
	}
	_ = model.AccountStateMachine().Transition(model.AccountStatusActive, to)
	return nil
}
