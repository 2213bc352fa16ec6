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
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-arcade/invitekit/internal/engine/model"
	"github.com/go-arcade/invitekit/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item = map[string]types.AttributeValue

// fakeDynamo keeps tables in memory and evaluates the small expression
// grammar the repositories emit: equality, attribute_exists and
// attribute_not_exists joined by AND, and SET lists.
type fakeDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]item
	keys   map[string]string
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{tables: map[string]map[string]item{}, keys: map[string]string{}}
}

func keyOf(key item) string {
	for _, v := range key {
		return v.(*types.AttributeValueMemberS).Value
	}
	return ""
}

func strAttr(it item, name string) (string, bool) {
	v, ok := it[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return v.Value, true
}

func (f *fakeDynamo) table(name string) map[string]item {
	t, ok := f.tables[name]
	if !ok {
		t = map[string]item{}
		f.tables[name] = t
	}
	return t
}

func evalCondition(cond *string, current item, names map[string]string, values map[string]types.AttributeValue) bool {
	if cond == nil {
		return true
	}
	for _, clause := range strings.Split(*cond, " AND ") {
		clause = strings.TrimSpace(clause)
		switch {
		case strings.HasPrefix(clause, "attribute_not_exists("):
			if current != nil {
				return false
			}
		case strings.HasPrefix(clause, "attribute_exists("):
			if current == nil {
				return false
			}
		default:
			parts := strings.SplitN(clause, " = ", 2)
			got, _ := strAttr(current, names[parts[0]])
			want := values[parts[1]].(*types.AttributeValueMemberS).Value
			if current == nil || got != want {
				return false
			}
		}
	}
	return true
}

func applyUpdate(current item, expr string, names map[string]string, values map[string]types.AttributeValue) {
	for _, assignment := range strings.Split(strings.TrimPrefix(expr, "SET "), ", ") {
		parts := strings.SplitN(assignment, " = ", 2)
		attr := parts[0]
		if resolved, ok := names[attr]; ok {
			attr = resolved
		}
		current[attr] = values[parts[1]]
	}
}

func copyItem(it item) item {
	out := make(item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it := f.table(*in.TableName)[keyOf(in.Key)]
	if it == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(it)}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current := f.table(*in.TableName)[keyOf(in.Key)]
	if !evalCondition(in.ConditionExpression, current, in.ExpressionAttributeNames, in.ExpressionAttributeValues) {
		ex := &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		if current != nil && in.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld {
			ex.Item = copyItem(current)
		}
		return nil, ex
	}
	applyUpdate(current, *in.UpdateExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.table(*in.TableName)
	key := keyOf(in.Key)
	if !evalCondition(in.ConditionExpression, t[key], in.ExpressionAttributeNames, in.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	delete(t, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []item
	for _, it := range f.table(*in.TableName) {
		if in.FilterExpression == nil || evalCondition(in.FilterExpression, it, in.ExpressionAttributeNames, in.ExpressionAttributeValues) {
			items = append(items, copyItem(it))
		}
	}
	return &dynamodb.ScanOutput{Items: items, Count: int32(len(items))}, nil
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	canceled := false
	for i, ti := range in.TransactItems {
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
		var ok bool
		switch {
		case ti.Put != nil:
			key := f.keys[*ti.Put.TableName]
			id, _ := strAttr(ti.Put.Item, key)
			ok = evalCondition(ti.Put.ConditionExpression, f.table(*ti.Put.TableName)[id], ti.Put.ExpressionAttributeNames, ti.Put.ExpressionAttributeValues)
		case ti.Update != nil:
			current := f.table(*ti.Update.TableName)[keyOf(ti.Update.Key)]
			ok = evalCondition(ti.Update.ConditionExpression, current, ti.Update.ExpressionAttributeNames, ti.Update.ExpressionAttributeValues)
		}
		if !ok {
			canceled = true
			reasons[i] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
		}
	}
	if canceled {
		return nil, &types.TransactionCanceledException{Message: aws.String("canceled"), CancellationReasons: reasons}
	}

	for _, ti := range in.TransactItems {
		switch {
		case ti.Put != nil:
			id, _ := strAttr(ti.Put.Item, f.keys[*ti.Put.TableName])
			f.table(*ti.Put.TableName)[id] = copyItem(ti.Put.Item)
		case ti.Update != nil:
			current := f.table(*ti.Update.TableName)[keyOf(ti.Update.Key)]
			applyUpdate(current, *ti.Update.UpdateExpression, ti.Update.ExpressionAttributeNames, ti.Update.ExpressionAttributeValues)
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeDynamo) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table(*in.TableName)
	f.keys[*in.TableName] = *in.KeySchema[0].AttributeName
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.keys[*in.TableName]; !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("no table")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func newDynamoRepos(t *testing.T) (*Repositories, *fakeDynamo) {
	t.Helper()
	client := newFakeDynamo()
	conf := database.DynamoDBConfig{TablePrefix: "test"}
	repos := NewDynamoRepositories(client, conf)
	require.NoError(t, repos.Store.Init(context.Background()))
	return repos, client
}

func TestDynamoStore_Init(t *testing.T) {
	repos, client := newDynamoRepos(t)
	conf := database.DynamoDBConfig{TablePrefix: "test"}

	assert.Equal(t, "token", client.keys[conf.InvitesTable()])
	assert.Equal(t, "user_id", client.keys[conf.UsersTable()])
	assert.Equal(t, database.DriverDynamoDB, repos.Store.Name())
	assert.NoError(t, repos.Store.Ping(context.Background()))
	// existing tables are left alone
	assert.NoError(t, repos.Store.Init(context.Background()))
}

func TestDynamoInviteRepo(t *testing.T) {
	ctx := context.Background()
	repos, _ := newDynamoRepos(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repos.Invite.Create(ctx, []*model.Invite{
		pendingInvite("tok-a", base),
		pendingInvite("tok-b", base.Add(time.Minute)),
	}))
	// duplicate tokens cancel the whole batch
	err := repos.Invite.Create(ctx, []*model.Invite{pendingInvite("tok-c", base), pendingInvite("tok-a", base)})
	assert.Error(t, err)
	_, err = repos.Invite.Get(ctx, "tok-c")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := repos.Invite.Get(ctx, "tok-a")
	require.NoError(t, err)
	assert.Equal(t, 90, got.EntitlementDays)
	assert.True(t, base.Equal(got.CreatedAt))

	list, err := repos.Invite.List(ctx, InviteFilter{IdentityStoreId: "d-store", Status: model.InviteStatusPending})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "tok-b", list[0].Token)

	require.NoError(t, repos.Invite.Revoke(ctx, "tok-b"))
	assert.ErrorIs(t, repos.Invite.Revoke(ctx, "tok-b"), ErrStateConflict)
	assert.ErrorIs(t, repos.Invite.Revoke(ctx, "missing"), ErrNotFound)

	account := newAccount("user_1", "a@x.com")
	require.NoError(t, repos.Invite.Claim(ctx, &Claim{Token: "tok-a", Account: account, ClaimedAt: base}))
	claimed, err := repos.Invite.Get(ctx, "tok-a")
	require.NoError(t, err)
	assert.Equal(t, model.InviteStatusClaimed, claimed.Status)
	assert.Equal(t, "user_1", claimed.ClaimedUserId)

	err = repos.Invite.Claim(ctx, &Claim{Token: "tok-a", Account: newAccount("user_2", "b@x.com"), ClaimedAt: base})
	assert.ErrorIs(t, err, ErrStateConflict)
	_, err = repos.Account.Get(ctx, "user_2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoAccountRepo(t *testing.T) {
	ctx := context.Background()
	repos, _ := newDynamoRepos(t)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Invite.Create(ctx, []*model.Invite{pendingInvite("tok", now)}))
	require.NoError(t, repos.Invite.Claim(ctx, &Claim{Token: "tok", Account: newAccount("user_1", "a@x.com"), ClaimedAt: now}))

	found, err := repos.Account.FindByEmail(ctx, "d-store", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "dir-user_1", found.DirectoryUserId)

	exists, err := repos.Account.ExistsUsername(ctx, "d-store", "kiro_user_1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repos.Account.Transition(ctx, "user_1", model.AccountStatusActive, model.AccountStatusExpired, now))
	got, err := repos.Account.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, model.AccountStatusExpired, got.Status)
	require.NotNil(t, got.ExpiredAt)
	assert.True(t, now.Equal(*got.ExpiredAt))

	assert.ErrorIs(t, repos.Account.Transition(ctx, "user_1", model.AccountStatusActive, model.AccountStatusDeleted, now), ErrStateConflict)
	assert.ErrorIs(t, repos.Account.Transition(ctx, "ghost", model.AccountStatusActive, model.AccountStatusDeleted, now), ErrNotFound)

	counts, err := repos.Account.CountByStatus(ctx, "d-store")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[model.AccountStatusExpired])

	require.NoError(t, repos.Account.Delete(ctx, "user_1"))
	assert.ErrorIs(t, repos.Account.Delete(ctx, "user_1"), ErrNotFound)
}
