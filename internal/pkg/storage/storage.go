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

package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
)

const (
	ProviderNone  = ""
	ProviderS3    = "s3"
	ProviderMinio = "minio"
	ProviderOSS   = "oss"
	ProviderCOS   = "cos"
	ProviderGCS   = "gcs"
)

// Conf selects the object store sweep reports are archived to. An empty
// Provider disables archiving.
type Conf struct {
	Provider  string `mapstructure:"provider"`
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
	UseTLS    bool   `mapstructure:"useTLS"`
	BasePath  string `mapstructure:"basePath"`
}

func (c *Conf) SetDefaults() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.BasePath == "" {
		c.BasePath = "invitekit"
	}
}

func (c *Conf) Validate() error {
	switch c.Provider {
	case ProviderNone:
		return nil
	case ProviderS3, ProviderGCS:
	case ProviderMinio, ProviderOSS, ProviderCOS:
		if c.Endpoint == "" {
			return fmt.Errorf("storage.endpoint is required for provider %s", c.Provider)
		}
	default:
		return fmt.Errorf("storage.provider %q is not supported", c.Provider)
	}
	if c.Bucket == "" {
		return errors.New("storage.bucket is required")
	}
	return nil
}

// Store writes whole objects. Keys are relative to Conf.BasePath.
type Store interface {
	Enabled() bool
	PutObject(ctx context.Context, objectName string, body []byte, contentType string) (string, error)
}

// NewStore builds the Store named by conf.Provider. The s3 provider
// reuses awsCfg unless conf carries its own keys or endpoint.
func NewStore(conf *Conf, awsCfg aws.Config) (Store, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	switch conf.Provider {
	case ProviderS3:
		return newS3(conf, awsCfg), nil
	case ProviderMinio:
		return newMinio(conf)
	case ProviderOSS:
		return newOSS(conf)
	case ProviderCOS:
		return newCOS(conf)
	case ProviderGCS:
		return newGCS(context.Background(), conf)
	default:
		return NopStore{}, nil
	}
}

// NopStore drops every object.
type NopStore struct{}

func (NopStore) Enabled() bool { return false }

func (NopStore) PutObject(context.Context, string, []byte, string) (string, error) {
	return "", nil
}

func getFullPath(basePath, objectName string) string {
	objectName = strings.TrimLeft(objectName, "/")
	basePath = strings.Trim(basePath, "/")
	if basePath == "" {
		return objectName
	}
	return path.Join(basePath, objectName)
}
