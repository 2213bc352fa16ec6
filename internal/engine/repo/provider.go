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
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-arcade/invitekit/pkg/database"
	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideRepositories)

// ProvideRepositories opens the configured backend and migrates it.
func ProvideRepositories(conf *database.Database, awsCfg aws.Config) (*Repositories, func(), error) {
	if err := conf.Validate(); err != nil {
		return nil, nil, err
	}

	var repos *Repositories
	switch conf.Driver {
	case database.DriverDynamoDB:
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if conf.DynamoDB.Endpoint != "" {
				o.BaseEndpoint = aws.String(conf.DynamoDB.Endpoint)
			}
		})
		repos = NewDynamoRepositories(client, conf.DynamoDB)
	default:
		manager, err := database.NewManager(*conf)
		if err != nil {
			return nil, nil, err
		}
		repos = NewRepositories(manager)
		// gorm tables migrate at every start, DynamoDB tables only through init-store
		if err := repos.Store.Init(context.Background()); err != nil {
			_ = manager.Close()
			return nil, nil, fmt.Errorf("migrate %s: %w", conf.Driver, err)
		}
	}

	log.Infow("storage backend ready", "driver", repos.Store.Name())
	cleanup := func() {
		if err := repos.Store.Close(); err != nil {
			log.Errorw("failed to close storage", "driver", repos.Store.Name(), "error", err)
		}
	}
	return repos, cleanup, nil
}
