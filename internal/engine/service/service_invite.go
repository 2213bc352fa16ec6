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
	"strings"
	"time"

	"github.com/go-arcade/invitekit/internal/engine/common"
	"github.com/go-arcade/invitekit/internal/engine/model"
	"github.com/go-arcade/invitekit/internal/engine/repo"
	"github.com/go-arcade/invitekit/internal/pkg/directory"
	"github.com/go-arcade/invitekit/pkg/id"
	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/go-arcade/invitekit/pkg/metrics"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	tokenBytes    = 12
	accountIdHex  = 12
	accountPrefix = "user_"
)

type InviteService struct {
	invites  repo.IInviteRepository
	accounts repo.IAccountRepository
	gateway  directory.Gateway
	dirConf  *directory.Conf
	conf     *InviteConf
	sweep    *SweepConf
	now      func() time.Time
}

func NewInviteService(repos *repo.Repositories, gateway directory.Gateway, dirConf *directory.Conf, conf *InviteConf, sweep *SweepConf) *InviteService {
	return &InviteService{
		invites:  repos.Invite,
		accounts: repos.Account,
		gateway:  gateway,
		dirConf:  dirConf,
		conf:     conf,
		sweep:    sweep,
		now:      time.Now,
	}
}

// StoreId resolves the tenant: explicit value first, configured default otherwise.
func (s *InviteService) StoreId(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return s.dirConf.IdentityStoreId
}

func ssoURL(storeId, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return "https://" + storeId + ".awsapps.com/start"
}

func (s *InviteService) view(invite *model.Invite, now time.Time) *model.InviteView {
	return &model.InviteView{
		Invite:   *invite,
		Status:   invite.EffectiveStatus(now),
		ClaimUrl: s.conf.ClaimURL(invite.Token),
	}
}

// Create mints a batch of PENDING invites sharing one deadline.
func (s *InviteService) Create(ctx context.Context, req *model.CreateInvitesReq) (*model.CreateInvitesResp, error) {
	if req.Tier == "" {
		req.Tier = s.conf.DefaultTier
	}
	if req.EntitlementDays == 0 {
		req.EntitlementDays = s.conf.DefaultEntitlementDays
	}
	req.IdentityStoreId = s.StoreId(req.IdentityStoreId)
	if err := req.Validate(); err != nil {
		return nil, newError(CodeInvalidArgument, err.Error(), err)
	}

	now := s.now()
	loc := s.sweep.Location()
	expiresAt := common.EntitlementDeadline(now, req.EntitlementDays, loc)
	if req.ExpiresDate != "" {
		d, err := common.ParseDeadlineDate(req.ExpiresDate, loc)
		if err != nil {
			return nil, newError(CodeInvalidArgument, err.Error(), err)
		}
		expiresAt = d
	}
	expiresAt = expiresAt.UTC()

	invites := make([]*model.Invite, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		token, err := id.URLSafeToken(tokenBytes)
		if err != nil {
			return nil, newError(CodeInternal, "", err)
		}
		invites = append(invites, &model.Invite{
			Token:           token,
			Status:          model.InviteStatusPending,
			Tier:            req.Tier,
			EntitlementDays: req.EntitlementDays,
			CreatedAt:       now.UTC(),
			ExpiresAt:       &expiresAt,
			Note:            req.Note,
			IdentityStoreId: req.IdentityStoreId,
			SsoUrl:          ssoURL(req.IdentityStoreId, req.SsoUrl),
		})
	}

	if err := s.invites.Create(ctx, invites); err != nil {
		log.Errorw("create invites failed", "count", req.Count, "storeId", req.IdentityStoreId, "error", err)
		return nil, newError(CodeInternal, "", err)
	}
	log.Infow("success create invites", "count", req.Count, "tier", req.Tier, "storeId", req.IdentityStoreId, "expiresAt", expiresAt)

	resp := &model.CreateInvitesResp{Count: len(invites), Invites: make([]*model.InviteView, 0, len(invites))}
	for _, invite := range invites {
		resp.Invites = append(resp.Invites, s.view(invite, now))
	}
	return resp, nil
}

// List returns invites newest first with their effective status. Filtering
// by EXPIRED selects PENDING invites past their deadline.
func (s *InviteService) List(ctx context.Context, storeId, status string) ([]*model.InviteView, error) {
	filter := repo.InviteFilter{IdentityStoreId: storeId}
	var want model.InviteStatus
	if status != "" {
		parsed, err := model.ParseInviteStatus(strings.ToUpper(status))
		if err != nil {
			return nil, newError(CodeInvalidArgument, err.Error(), err)
		}
		want = parsed
		filter.Status = parsed
		if parsed == model.InviteStatusExpired {
			filter.Status = model.InviteStatusPending
		}
	}

	invites, err := s.invites.List(ctx, filter)
	if err != nil {
		log.Errorw("list invites failed", "storeId", storeId, "status", status, "error", err)
		return nil, newError(CodeInternal, "", err)
	}

	now := s.now()
	views := make([]*model.InviteView, 0, len(invites))
	for _, invite := range invites {
		v := s.view(invite, now)
		if want != "" && v.Status != want {
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

// Revoke moves a PENDING invite to REVOKED.
func (s *InviteService) Revoke(ctx context.Context, token string) error {
	invite, err := s.invites.Get(ctx, token)
	if errors.Is(err, repo.ErrNotFound) {
		return newError(CodeNotFound, "invite not found", err)
	}
	if err != nil {
		return newError(CodeInternal, "", err)
	}
	if model.InviteStateMachine().IsTerminal(invite.Status) {
		return newError(CodeAlreadyClaimed, "", nil)
	}

	switch err := s.invites.Revoke(ctx, token); {
	case errors.Is(err, repo.ErrNotFound):
		return newError(CodeNotFound, "invite not found", err)
	case errors.Is(err, repo.ErrStateConflict):
		return newError(CodeAlreadyClaimed, "", err)
	case err != nil:
		log.Errorw("revoke invite failed", "token", token, "error", err)
		return newError(CodeInternal, "", err)
	}
	log.Infow("invite revoked", "token", token)
	return nil
}

// check applies the redemption validity rules shared by Info and Redeem.
func (s *InviteService) check(ctx context.Context, token string, now time.Time) (*model.Invite, ErrorCode) {
	invite, err := s.invites.Get(ctx, token)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, CodeInvalidToken
	}
	if err != nil {
		log.Errorw("get invite failed", "token", token, "error", err)
		return nil, CodeInternal
	}
	if invite.Status != model.InviteStatusPending {
		return invite, CodeNotAvailable
	}
	if invite.IsExpired(now) {
		return invite, CodeExpired
	}
	return invite, ""
}

// Info reports whether token can still be redeemed.
func (s *InviteService) Info(ctx context.Context, token string) *model.InviteInfo {
	invite, code := s.check(ctx, token, s.now())
	if code != "" {
		info := &model.InviteInfo{Valid: false, Error: string(code), Message: code.Message()}
		if code == CodeNotAvailable && invite.Status == model.InviteStatusRevoked {
			info.Message = "This invite has been revoked."
		}
		return info
	}
	createdAt := invite.CreatedAt
	return &model.InviteInfo{
		Valid:           true,
		Tier:            invite.Tier,
		EntitlementDays: invite.EntitlementDays,
		ExpiresAt:       invite.ExpiresAt,
		CreatedAt:       &createdAt,
		SsoUrl:          ssoURL(s.StoreId(invite.IdentityStoreId), invite.SsoUrl),
	}
}

func failure(code ErrorCode) *model.RedeemResult {
	metrics.RecordRedemption(string(code))
	return &model.RedeemResult{Success: false, Error: string(code), Message: code.Message()}
}

// Redeem claims token for email. Token checks run before the email is
// validated. Domain failures come back in the result, never as an error.
func (s *InviteService) Redeem(ctx context.Context, token string, req *model.RedeemReq) *model.RedeemResult {
	// 1. 校验邀请
	now := s.now()
	invite, code := s.check(ctx, token, now)
	if code != "" {
		return failure(code)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		result := failure(CodeInvalidArgument)
		result.Message = "A valid email address is required."
		return result
	}
	storeId := s.StoreId(invite.IdentityStoreId)
	sso := ssoURL(storeId, invite.SsoUrl)

	// 2. 邮箱在租户内唯一
	if _, err := s.accounts.FindByEmail(ctx, storeId, email); err == nil {
		return failure(CodeEmailTaken)
	} else if !errors.Is(err, repo.ErrNotFound) {
		log.Errorw("find account by email failed", "storeId", storeId, "error", err)
		return failure(CodeInternal)
	}

	// 3. 生成用户名
	username, err := s.pickUsername(ctx, storeId, email)
	if err != nil {
		log.Errorw("pick username failed", "storeId", storeId, "error", err)
		return failure(CodeInternal)
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = common.LocalPart(email)
	}

	// 4. 创建目录用户
	directoryUserId, created, err := s.provision(ctx, storeId, username, email, displayName)
	if err != nil {
		log.Errorw("provision directory user failed", "storeId", storeId, "username", username, "error", err)
		return failure(CodeDirectoryUnavailable)
	}
	if groupId, ok := s.dirConf.GroupFor(invite.Tier); ok {
		if err := s.gateway.AddToGroup(ctx, storeId, directoryUserId, groupId); err != nil {
			metrics.RecordGroupAssignmentFailure()
			log.Errorw("add directory user to group failed", "directoryUserId", directoryUserId, "groupId", groupId, "tier", invite.Tier, "error", err)
		}
	}

	// 5. 原子写入账号并认领邀请
	expiresAt := common.EntitlementDeadline(now, invite.EntitlementDays, s.sweep.Location()).UTC()
	if invite.ExpiresAt != nil {
		expiresAt = invite.ExpiresAt.UTC()
	}
	account := &model.Account{
		UserId:          id.PrefixedHex(accountPrefix, accountIdHex),
		Username:        username,
		Email:           email,
		DisplayName:     displayName,
		Status:          model.AccountStatusActive,
		Tier:            invite.Tier,
		DirectoryUserId: directoryUserId,
		CreatedAt:       now.UTC(),
		ExpiresAt:       &expiresAt,
		InviteToken:     token,
		IdentityStoreId: storeId,
		SsoUrl:          sso,
	}
	err = s.invites.Claim(ctx, &repo.Claim{Token: token, Account: account, ClaimedAt: now.UTC()})
	if err != nil {
		if created {
			s.discard(storeId, directoryUserId)
		}
		if errors.Is(err, repo.ErrStateConflict) {
			log.Warnw("invite claimed concurrently", "token", token)
			return failure(CodeNotAvailable)
		}
		log.Errorw("claim invite failed", "token", token, "error", err)
		return failure(CodeInternal)
	}

	metrics.RecordRedemption("success")
	log.Infow("invite redeemed", "token", token, "userId", account.UserId, "username", username, "storeId", storeId)
	return &model.RedeemResult{
		Success:   true,
		UserId:    account.UserId,
		Username:  username,
		Email:     email,
		Tier:      invite.Tier,
		ExpiresAt: &expiresAt,
		SsoUrl:    sso,
	}
}

func (s *InviteService) pickUsername(ctx context.Context, storeId, email string) (string, error) {
	prefix := s.dirConf.UsernamePrefix
	username := common.Username(prefix, email)
	taken, err := s.accounts.ExistsUsername(ctx, storeId, username)
	if err != nil || !taken {
		return username, err
	}
	suffix, err := id.RandomHex(common.UsernameSuffixLen)
	if err != nil {
		return "", err
	}
	return common.FallbackUsername(prefix, email, suffix), nil
}

// provision creates the directory identity, or adopts the existing one when
// the username is already taken there. created reports a new identity.
func (s *InviteService) provision(ctx context.Context, storeId, username, email, displayName string) (string, bool, error) {
	directoryUserId, err := s.gateway.CreateUser(ctx, storeId, directory.NewUser{
		Username:    username,
		Email:       email,
		DisplayName: displayName,
		FamilyName:  s.dirConf.FamilyName,
	})
	if errors.Is(err, directory.ErrAlreadyExists) {
		existing, lookupErr := s.gateway.FindUserByName(ctx, storeId, username)
		if lookupErr != nil {
			return "", false, lookupErr
		}
		log.Infow("reusing existing directory user", "username", username, "directoryUserId", existing)
		return existing, false, nil
	}
	if err != nil {
		return "", false, err
	}

	// identities created through the API start disabled
	if err := s.gateway.EnableUser(ctx, storeId, directoryUserId); err != nil {
		log.Warnw("enable directory user failed", "directoryUserId", directoryUserId, "error", err)
	}
	return directoryUserId, true, nil
}

// discard removes a directory identity whose redemption did not commit.
func (s *InviteService) discard(storeId, directoryUserId string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.sweep.CallTimeout)
	defer cancel()
	if err := s.gateway.DeleteUser(ctx, storeId, directoryUserId); err != nil && !errors.Is(err, directory.ErrNotFound) {
		log.Errorw("discard directory user failed", "directoryUserId", directoryUserId, "error", err)
	}
}
