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

package awsx

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideAWSConfig)

// Conf selects the region and credentials shared by every AWS client.
// Without static keys the default credential chain is used.
type Conf struct {
	Region       string `mapstructure:"region"`
	AccessKey    string `mapstructure:"accessKey"`
	SecretKey    string `mapstructure:"secretKey"`
	SessionToken string `mapstructure:"sessionToken"`
	Endpoint     string `mapstructure:"endpoint"`
}

func (c *Conf) SetDefaults() {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
}

func ProvideAWSConfig(conf *Conf) (aws.Config, error) {
	return LoadConfig(context.Background(), conf)
}

// LoadConfig resolves an aws.Config from conf.
func LoadConfig(ctx context.Context, conf *Conf) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(conf.Region),
	}
	if conf.AccessKey != "" && conf.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     conf.AccessKey,
				SecretAccessKey: conf.SecretKey,
				SessionToken:    conf.SessionToken,
			},
		}))
	}
	if conf.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(conf.Endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
