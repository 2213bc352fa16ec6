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

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSStorage struct {
	bucket *storage.BucketHandle
	conf   *Conf
}

// newGCS treats AccessKey as the path of a service account JSON file.
// Without it application default credentials are used.
func newGCS(ctx context.Context, conf *Conf) (*GCSStorage, error) {
	var opts []option.ClientOption
	if conf.AccessKey != "" {
		opts = append(opts, option.WithCredentialsFile(conf.AccessKey))
	}
	if conf.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(conf.Endpoint))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSStorage{bucket: client.Bucket(conf.Bucket), conf: conf}, nil
}

func (g *GCSStorage) Enabled() bool { return true }

func (g *GCSStorage) PutObject(ctx context.Context, objectName string, body []byte, contentType string) (string, error) {
	fullPath := getFullPath(g.conf.BasePath, objectName)
	writer := g.bucket.Object(fullPath).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(body); err != nil {
		_ = writer.Close()
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}
	return fullPath, nil
}
