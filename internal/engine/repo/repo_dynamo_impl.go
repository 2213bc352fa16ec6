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
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-arcade/invitekit/internal/engine/model"
)

type DynamoInviteRepo struct {
	client     DynamoAPI
	table      string
	usersTable string
}

// Create writes the batch in one transaction so a partial batch is never visible.
func (r *DynamoInviteRepo) Create(ctx context.Context, invites []*model.Invite) error {
	if len(invites) == 0 {
		return nil
	}
	items := make([]types.TransactWriteItem, 0, len(invites))
	for _, invite := range invites {
		av, err := attributevalue.MarshalMap(invite)
		if err != nil {
			return fmt.Errorf("marshal invite: %w", err)
		}
		items = append(items, types.TransactWriteItem{Put: &types.Put{
			TableName:                aws.String(r.table),
			Item:                     av,
			ConditionExpression:      aws.String("attribute_not_exists(#t)"),
			ExpressionAttributeNames: map[string]string{"#t": "token"},
		}})
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		return fmt.Errorf("put invites: %w", err)
	}
	return nil
}

func (r *DynamoInviteRepo) Get(ctx context.Context, token string) (*model.Invite, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            stringKey("token", token),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var invite model.Invite
	if err := attributevalue.UnmarshalMap(out.Item, &invite); err != nil {
		return nil, fmt.Errorf("unmarshal invite: %w", err)
	}
	return &invite, nil
}

func (r *DynamoInviteRepo) List(ctx context.Context, filter InviteFilter) ([]*model.Invite, error) {
	f := new(filterExpr).
		eq("identity_store_id", filter.IdentityStoreId).
		eq("status", string(filter.Status))
	invites, err := scanAll[model.Invite](ctx, r.client, f.apply(&dynamodb.ScanInput{TableName: aws.String(r.table)}))
	if err != nil {
		return nil, err
	}
	slices.SortFunc(invites, func(a, b *model.Invite) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return invites, nil
}

func (r *DynamoInviteRepo) Revoke(ctx context.Context, token string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(r.table),
		Key:                                 stringKey("token", token),
		UpdateExpression:                    aws.String("SET #s = :revoked"),
		ConditionExpression:                 aws.String("attribute_exists(#t) AND #s = :pending"),
		ExpressionAttributeNames:            map[string]string{"#s": "status", "#t": "token"},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":revoked": &types.AttributeValueMemberS{Value: string(model.InviteStatusRevoked)},
			":pending": &types.AttributeValueMemberS{Value: string(model.InviteStatusPending)},
		},
	})
	if failed, old := conditionFailed(err); failed {
		if len(old) == 0 {
			return ErrNotFound
		}
		return ErrStateConflict
	}
	if err != nil {
		return fmt.Errorf("revoke invite: %w", err)
	}
	return nil
}

func (r *DynamoInviteRepo) Claim(ctx context.Context, claim *Claim) error {
	account, err := attributevalue.MarshalMap(claim.Account)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	claimedAt, err := attributevalue.Marshal(claim.ClaimedAt)
	if err != nil {
		return fmt.Errorf("marshal claimed_at: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.usersTable),
				Item:                     account,
				ConditionExpression:      aws.String("attribute_not_exists(#u)"),
				ExpressionAttributeNames: map[string]string{"#u": "user_id"},
			}},
			{Update: &types.Update{
				TableName:           aws.String(r.table),
				Key:                 stringKey("token", claim.Token),
				UpdateExpression:    aws.String("SET #s = :claimed, claimed_at = :at, claimed_email = :email, claimed_user_id = :uid"),
				ConditionExpression: aws.String("#s = :pending"),
				ExpressionAttributeNames: map[string]string{
					"#s": "status",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":claimed": &types.AttributeValueMemberS{Value: string(model.InviteStatusClaimed)},
					":pending": &types.AttributeValueMemberS{Value: string(model.InviteStatusPending)},
					":at":      claimedAt,
					":email":   &types.AttributeValueMemberS{Value: claim.Account.Email},
					":uid":     &types.AttributeValueMemberS{Value: claim.Account.UserId},
				},
			}},
		},
	})
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for _, reason := range canceled.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return ErrStateConflict
			}
		}
	}
	if err != nil {
		return fmt.Errorf("claim invite: %w", err)
	}
	return nil
}

type DynamoAccountRepo struct {
	client DynamoAPI
	table  string
}

func (r *DynamoAccountRepo) Get(ctx context.Context, userId string) (*model.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            stringKey("user_id", userId),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var account model.Account
	if err := attributevalue.UnmarshalMap(out.Item, &account); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}
	return &account, nil
}

func (r *DynamoAccountRepo) scan(ctx context.Context, f *filterExpr) ([]*model.Account, error) {
	return scanAll[model.Account](ctx, r.client, f.apply(&dynamodb.ScanInput{TableName: aws.String(r.table)}))
}

func (r *DynamoAccountRepo) FindByEmail(ctx context.Context, identityStoreId, email string) (*model.Account, error) {
	accounts, err := r.scan(ctx, new(filterExpr).eq("identity_store_id", identityStoreId).eq("email", email))
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNotFound
	}
	return accounts[0], nil
}

func (r *DynamoAccountRepo) ExistsUsername(ctx context.Context, identityStoreId, username string) (bool, error) {
	accounts, err := r.scan(ctx, new(filterExpr).eq("identity_store_id", identityStoreId).eq("username", username))
	if err != nil {
		return false, err
	}
	return len(accounts) > 0, nil
}

func (r *DynamoAccountRepo) List(ctx context.Context, filter AccountFilter) ([]*model.Account, error) {
	accounts, err := r.scan(ctx, new(filterExpr).
		eq("identity_store_id", filter.IdentityStoreId).
		eq("status", string(filter.Status)))
	if err != nil {
		return nil, err
	}
	slices.SortFunc(accounts, func(a, b *model.Account) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return accounts, nil
}

func (r *DynamoAccountRepo) Transition(ctx context.Context, userId string, from, to model.AccountStatus, at time.Time) error {
	update := "SET #s = :to"
	values := map[string]types.AttributeValue{
		":to":   &types.AttributeValueMemberS{Value: string(to)},
		":from": &types.AttributeValueMemberS{Value: string(from)},
	}
	if col := stampColumn(to); col != "" {
		stamp, err := attributevalue.Marshal(at)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", col, err)
		}
		update += ", " + col + " = :at"
		values[":at"] = stamp
	}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(r.table),
		Key:                                 stringKey("user_id", userId),
		UpdateExpression:                    aws.String(update),
		ConditionExpression:                 aws.String("attribute_exists(#u) AND #s = :from"),
		ExpressionAttributeNames:            map[string]string{"#s": "status", "#u": "user_id"},
		ExpressionAttributeValues:           values,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if failed, old := conditionFailed(err); failed {
		if len(old) == 0 {
			return ErrNotFound
		}
		return ErrStateConflict
	}
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	return nil
}

func (r *DynamoAccountRepo) Delete(ctx context.Context, userId string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.table),
		Key:                      stringKey("user_id", userId),
		ConditionExpression:      aws.String("attribute_exists(#u)"),
		ExpressionAttributeNames: map[string]string{"#u": "user_id"},
	})
	if failed, _ := conditionFailed(err); failed {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func (r *DynamoAccountRepo) CountByStatus(ctx context.Context, identityStoreId string) (map[model.AccountStatus]int64, error) {
	accounts, err := r.scan(ctx, new(filterExpr).eq("identity_store_id", identityStoreId))
	if err != nil {
		return nil, err
	}
	counts := make(map[model.AccountStatus]int64)
	for _, a := range accounts {
		counts[a.Status]++
	}
	return counts, nil
}
