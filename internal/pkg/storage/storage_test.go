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
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestConf_Validate(t *testing.T) {
	tests := []struct {
		name    string
		conf    Conf
		wantErr string
	}{
		{name: "disabled", conf: Conf{}},
		{name: "s3", conf: Conf{Provider: "S3", Bucket: "reports"}},
		{name: "s3 without bucket", conf: Conf{Provider: "s3"}, wantErr: "storage.bucket"},
		{name: "minio without endpoint", conf: Conf{Provider: "minio", Bucket: "reports"}, wantErr: "storage.endpoint"},
		{name: "unknown", conf: Conf{Provider: "ftp", Bucket: "reports"}, wantErr: "not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := tt.conf
			conf.SetDefaults()
			err := conf.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetFullPath(t *testing.T) {
	assert.Equal(t, "a/b.json", getFullPath("", "/a/b.json"))
	assert.Equal(t, "base/a/b.json", getFullPath("/base/", "a/b.json"))
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(&Conf{}, aws.Config{})
	require.NoError(t, err)
	assert.False(t, store.Enabled())

	conf := &Conf{Provider: "s3", Bucket: "reports", Endpoint: "http://localhost:4566"}
	conf.SetDefaults()
	store, err = NewStore(conf, aws.Config{Region: "us-east-1"})
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, store)

	_, err = NewStore(&Conf{Provider: "s3"}, aws.Config{})
	assert.Error(t, err)
}

func TestReportArchive_Put(t *testing.T) {
	fake := &fakeS3{}
	conf := &Conf{Provider: "s3", Bucket: "reports"}
	conf.SetDefaults()
	archive := NewReportArchive(&S3Storage{client: fake, conf: conf})
	at := time.Date(2025, 1, 10, 23, 50, 0, 0, time.UTC)

	fullPath, err := archive.Put(context.Background(), "primary", "run-1", at, map[string]int{"processed": 2})
	require.NoError(t, err)
	assert.Equal(t, "invitekit/reports/2025/01/10/run-1-primary.json", fullPath)
	assert.Equal(t, "reports", aws.ToString(fake.input.Bucket))
	assert.Equal(t, fullPath, aws.ToString(fake.input.Key))
	assert.Equal(t, "application/json", aws.ToString(fake.input.ContentType))

	var got map[string]int
	require.NoError(t, json.Unmarshal(fake.body, &got))
	assert.Equal(t, 2, got["processed"])
}

func TestReportArchive_PutError(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	conf := &Conf{Provider: "s3", Bucket: "reports"}
	archive := NewReportArchive(&S3Storage{client: fake, conf: conf})

	_, err := archive.Put(context.Background(), "primary", "run-1", time.Now(), struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestReportArchive_Disabled(t *testing.T) {
	archive := NewReportArchive(nil)
	assert.False(t, archive.Enabled())
	fullPath, err := archive.Put(context.Background(), "primary", "run-1", time.Now(), struct{}{})
	require.NoError(t, err)
	assert.Empty(t, fullPath)
}
