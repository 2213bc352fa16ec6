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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Storage struct {
	client s3PutAPI
	conf   *Conf
}

func newS3(conf *Conf, awsCfg aws.Config) *S3Storage {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if conf.Region != "" {
			o.Region = conf.Region
		}
		if conf.AccessKey != "" && conf.SecretKey != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(conf.AccessKey, conf.SecretKey, "")
		}
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
			// 自定义端点（localstack 等）通常不支持虚拟主机风格
			o.UsePathStyle = true
		}
	})
	return &S3Storage{client: client, conf: conf}
}

func (s *S3Storage) Enabled() bool { return true }

func (s *S3Storage) PutObject(ctx context.Context, objectName string, body []byte, contentType string) (string, error) {
	fullPath := getFullPath(s.conf.BasePath, objectName)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.conf.Bucket),
		Key:           aws.String(fullPath),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return fullPath, nil
}
