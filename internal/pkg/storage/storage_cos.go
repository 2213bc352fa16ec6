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
	"net/http"
	"net/url"

	"github.com/tencentyun/cos-go-sdk-v5"
)

type COSStorage struct {
	client *cos.Client
	conf   *Conf
}

func newCOS(conf *Conf) (*COSStorage, error) {
	u, err := url.Parse(conf.Endpoint)
	if err != nil {
		return nil, err
	}
	// 腾讯云 COS 需要 bucket 域名
	if u.Host != "" {
		u, err = url.Parse("https://" + conf.Bucket + "." + u.Host)
		if err != nil {
			return nil, err
		}
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  conf.AccessKey,
			SecretKey: conf.SecretKey,
		},
	})
	return &COSStorage{client: client, conf: conf}, nil
}

func (c *COSStorage) Enabled() bool { return true }

func (c *COSStorage) PutObject(ctx context.Context, objectName string, body []byte, contentType string) (string, error) {
	fullPath := getFullPath(c.conf.BasePath, objectName)
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType: contentType,
		},
	}
	if _, err := c.client.Object.Put(ctx, fullPath, bytes.NewReader(body), opt); err != nil {
		return "", err
	}
	return fullPath, nil
}
