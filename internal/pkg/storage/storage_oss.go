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
	"bytes"
	"context"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type OSSStorage struct {
	bucket *oss.Bucket
	conf   *Conf
}

func newOSS(conf *Conf) (*OSSStorage, error) {
	client, err := oss.New(conf.Endpoint, conf.AccessKey, conf.SecretKey)
	if err != nil {
		return nil, err
	}
	bucket, err := client.Bucket(conf.Bucket)
	if err != nil {
		return nil, err
	}
	return &OSSStorage{bucket: bucket, conf: conf}, nil
}

func (o *OSSStorage) Enabled() bool { return true }

func (o *OSSStorage) PutObject(ctx context.Context, objectName string, body []byte, contentType string) (string, error) {
	fullPath := getFullPath(o.conf.BasePath, objectName)
	if err := o.bucket.PutObject(fullPath, bytes.NewReader(body), oss.ContentType(contentType), oss.WithContext(ctx)); err != nil {
		return "", err
	}
	return fullPath, nil
}
