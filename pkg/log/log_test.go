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

package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConf(t *testing.T) {
	conf := SetDefaults()

	assert.Equal(t, "stdout", conf.Output)
	assert.Equal(t, "INFO", conf.Level)
	assert.Equal(t, 7, conf.KeepDays)
	assert.Equal(t, "invitekit.log", conf.Filename)
}

func TestConf_Validate(t *testing.T) {
	tests := []struct {
		name    string
		conf    *Conf
		wantErr bool
	}{
		{name: "stdout ignores file settings", conf: &Conf{Output: "stdout"}},
		{name: "file with path", conf: &Conf{Output: "file", Path: "/tmp/logs", RotateSize: 50}},
		{name: "file without path", conf: &Conf{Output: "file"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conf.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConf_ValidateFillsRotation(t *testing.T) {
	conf := &Conf{Output: "file", Path: "/tmp/logs"}
	require.NoError(t, conf.Validate())

	assert.Equal(t, 100, conf.RotateSize)
	assert.Equal(t, 10, conf.RotateNum)
	assert.Equal(t, 7, conf.KeepDays)
	assert.Equal(t, "invitekit.log", conf.Filename)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{" INFO ", zapcore.InfoLevel},
		{"Warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestHelpersBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Infow("not configured yet", "key", "value")
		Errorw("still fine", "error", os.ErrNotExist)
	})
}

func TestNewLog_File(t *testing.T) {
	dir := t.TempDir()
	conf := &Conf{Output: "file", Path: dir, Filename: "test.log", Level: "debug"}

	l, err := NewLog(conf)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = NewLog(&Conf{Output: "stdout", Level: "error"})
	})

	Infow("written to file", "n", 1)
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
