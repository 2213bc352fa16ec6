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
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-arcade/invitekit/pkg/database"
	"github.com/go-arcade/invitekit/pkg/log"
)

// DynamoAPI is the subset of the DynamoDB client the repositories call.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

const tableCreateTimeout = 2 * time.Minute

// DynamoStore backs the repositories with two DynamoDB tables.
type DynamoStore struct {
	client DynamoAPI
	conf   database.DynamoDBConfig
}

func NewDynamoStore(client DynamoAPI, conf database.DynamoDBConfig) *DynamoStore {
	return &DynamoStore{client: client, conf: conf}
}

// NewDynamoRepositories builds the DynamoDB-backed capability set.
func NewDynamoRepositories(client DynamoAPI, conf database.DynamoDBConfig) *Repositories {
	return &Repositories{
		Invite:  &DynamoInviteRepo{client: client, table: conf.InvitesTable(), usersTable: conf.UsersTable()},
		Account: &DynamoAccountRepo{client: client, table: conf.UsersTable()},
		Store:   NewDynamoStore(client, conf),
	}
}

func (s *DynamoStore) Name() string {
	return database.DriverDynamoDB
}

func (s *DynamoStore) Init(ctx context.Context) error {
	tables := []struct{ name, key string }{
		{s.conf.InvitesTable(), "token"},
		{s.conf.UsersTable(), "user_id"},
	}
	for _, t := range tables {
		if err := s.ensureTable(ctx, t.name, t.key); err != nil {
			return err
		}
	}
	return nil
}

func (s *DynamoStore) ensureTable(ctx context.Context, name, key string) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
	if err == nil {
		log.Infow("dynamodb table exists", "table", name)
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describe table %s: %w", name, err)
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(key), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(key), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return fmt.Errorf("create table %s: %w", name, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)}, tableCreateTimeout); err != nil {
		return fmt.Errorf("wait for table %s: %w", name, err)
	}
	log.Infow("dynamodb table created", "table", name, "key", key)
	return nil
}

func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.conf.InvitesTable())})
	return err
}

func (s *DynamoStore) Close() error {
	return nil
}

// scanAll pages through a table and unmarshals every item into out.
func scanAll[T any](ctx context.Context, client DynamoAPI, input *dynamodb.ScanInput) ([]*T, error) {
	var items []*T
	paginator := dynamodb.NewScanPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", aws.ToString(input.TableName), err)
		}
		var batch []*T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", aws.ToString(input.TableName), err)
		}
		items = append(items, batch...)
	}
	return items, nil
}

// filterExpr builds an AND filter over equality conditions on string attributes.
type filterExpr struct {
	expr   string
	names  map[string]string
	values map[string]types.AttributeValue
}

func (f *filterExpr) eq(attr, value string) *filterExpr {
	if value == "" {
		return f
	}
	if f.names == nil {
		f.names = map[string]string{}
		f.values = map[string]types.AttributeValue{}
	}
	n := fmt.Sprintf("#f%d", len(f.names))
	v := fmt.Sprintf(":f%d", len(f.values))
	f.names[n] = attr
	f.values[v] = &types.AttributeValueMemberS{Value: value}
	if f.expr != "" {
		f.expr += " AND "
	}
	f.expr += n + " = " + v
	return f
}

func (f *filterExpr) apply(input *dynamodb.ScanInput) *dynamodb.ScanInput {
	if f.expr == "" {
		return input
	}
	input.FilterExpression = aws.String(f.expr)
	input.ExpressionAttributeNames = f.names
	input.ExpressionAttributeValues = f.values
	return input
}

func stringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{name: &types.AttributeValueMemberS{Value: value}}
}

// conditionFailed reports whether err is a failed condition and returns
// the item it was evaluated against, if any.
func conditionFailed(err error) (bool, map[string]types.AttributeValue) {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true, ccf.Item
	}
	return false, nil
}
