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
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/identitystore"
	"github.com/aws/aws-sdk-go-v2/service/identitystore/document"
	"github.com/aws/aws-sdk-go-v2/service/identitystore/types"
	"github.com/aws/smithy-go"
	"github.com/go-arcade/invitekit/pkg/log"
)

// IdentityStoreAPI is the subset of the identity store client the gateway calls.
type IdentityStoreAPI interface {
	CreateUser(ctx context.Context, params *identitystore.CreateUserInput, optFns ...func(*identitystore.Options)) (*identitystore.CreateUserOutput, error)
	ListUsers(ctx context.Context, params *identitystore.ListUsersInput, optFns ...func(*identitystore.Options)) (*identitystore.ListUsersOutput, error)
	DeleteUser(ctx context.Context, params *identitystore.DeleteUserInput, optFns ...func(*identitystore.Options)) (*identitystore.DeleteUserOutput, error)
	UpdateUser(ctx context.Context, params *identitystore.UpdateUserInput, optFns ...func(*identitystore.Options)) (*identitystore.UpdateUserOutput, error)
	CreateGroupMembership(ctx context.Context, params *identitystore.CreateGroupMembershipInput, optFns ...func(*identitystore.Options)) (*identitystore.CreateGroupMembershipOutput, error)
}

// IdentityStoreGateway talks to IAM Identity Center.
type IdentityStoreGateway struct {
	client IdentityStoreAPI
	conf   *Conf
}

func NewIdentityStoreGateway(client IdentityStoreAPI, conf *Conf) *IdentityStoreGateway {
	return &IdentityStoreGateway{client: client, conf: conf}
}

func (g *IdentityStoreGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.conf.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.conf.CallTimeout)
}

func (g *IdentityStoreGateway) CreateUser(ctx context.Context, storeId string, user NewUser) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	familyName := user.FamilyName
	if familyName == "" {
		familyName = g.conf.FamilyName
	}
	out, err := g.client.CreateUser(ctx, &identitystore.CreateUserInput{
		IdentityStoreId: aws.String(storeId),
		UserName:        aws.String(user.Username),
		DisplayName:     aws.String(user.DisplayName),
		Name: &types.Name{
			GivenName:  aws.String(user.DisplayName),
			FamilyName: aws.String(familyName),
		},
		Emails: []types.Email{{
			Value:   aws.String(user.Email),
			Type:    aws.String("work"),
			Primary: true,
		}},
	})
	if isConflict(err) {
		return "", fmt.Errorf("create user %s: %w", user.Username, ErrAlreadyExists)
	}
	if err != nil {
		return "", fmt.Errorf("create user %s: %w", user.Username, err)
	}
	log.Infow("directory user created", "storeId", storeId, "username", user.Username, "directoryUserId", aws.ToString(out.UserId))
	return aws.ToString(out.UserId), nil
}

func (g *IdentityStoreGateway) FindUserByName(ctx context.Context, storeId, username string) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	out, err := g.client.ListUsers(ctx, &identitystore.ListUsersInput{
		IdentityStoreId: aws.String(storeId),
		Filters: []types.Filter{{
			AttributePath:  aws.String("UserName"),
			AttributeValue: aws.String(username),
		}},
	})
	if err != nil {
		return "", fmt.Errorf("list users %s: %w", username, err)
	}
	if len(out.Users) == 0 {
		return "", ErrNotFound
	}
	return aws.ToString(out.Users[0].UserId), nil
}

func (g *IdentityStoreGateway) DeleteUser(ctx context.Context, storeId, userId string) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.client.DeleteUser(ctx, &identitystore.DeleteUserInput{
		IdentityStoreId: aws.String(storeId),
		UserId:          aws.String(userId),
	})
	if isNotFound(err) {
		return fmt.Errorf("delete user %s: %w", userId, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete user %s: %w", userId, err)
	}
	return nil
}

func (g *IdentityStoreGateway) EnableUser(ctx context.Context, storeId, userId string) error {
	return g.setActive(ctx, storeId, userId, true)
}

func (g *IdentityStoreGateway) DisableUser(ctx context.Context, storeId, userId string) error {
	return g.setActive(ctx, storeId, userId, false)
}

func (g *IdentityStoreGateway) setActive(ctx context.Context, storeId, userId string, active bool) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.client.UpdateUser(ctx, &identitystore.UpdateUserInput{
		IdentityStoreId: aws.String(storeId),
		UserId:          aws.String(userId),
		Operations: []types.AttributeOperation{{
			AttributePath:  aws.String("active"),
			AttributeValue: document.NewLazyDocument(fmt.Sprint(active)),
		}},
	})
	if isNotFound(err) {
		return fmt.Errorf("update user %s: %w", userId, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user %s active=%t: %w", userId, active, err)
	}
	return nil
}

func (g *IdentityStoreGateway) AddToGroup(ctx context.Context, storeId, userId, groupId string) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.client.CreateGroupMembership(ctx, &identitystore.CreateGroupMembershipInput{
		IdentityStoreId: aws.String(storeId),
		GroupId:         aws.String(groupId),
		MemberId:        &types.MemberIdMemberUserId{Value: userId},
	})
	if isConflict(err) {
		log.Debugw("directory user already in group", "directoryUserId", userId, "groupId", groupId)
		return nil
	}
	if err != nil {
		return fmt.Errorf("add user %s to group %s: %w", userId, groupId, err)
	}
	return nil
}

func isConflict(err error) bool {
	if err == nil {
		return false
	}
	var conflict *types.ConflictException
	if errors.As(err, &conflict) {
		return true
	}
	return apiErrorCode(err) == "ConflictException"
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return true
	}
	return apiErrorCode(err) == "ResourceNotFoundException"
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
