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

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-arcade/invitekit/internal/engine/model"
	"github.com/go-arcade/invitekit/internal/engine/service"
	"github.com/go-arcade/invitekit/internal/pkg/awsx"
	"github.com/go-arcade/invitekit/internal/pkg/directory"
	"github.com/go-arcade/invitekit/internal/pkg/notify"
	"github.com/go-arcade/invitekit/internal/pkg/storage"
	"github.com/go-arcade/invitekit/pkg/cache"
	"github.com/go-arcade/invitekit/pkg/database"
	"github.com/go-arcade/invitekit/pkg/http"
	"github.com/go-arcade/invitekit/pkg/http/jwt"
	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/go-arcade/invitekit/pkg/metrics"
	"github.com/go-arcade/invitekit/pkg/pprof"
	"github.com/go-arcade/invitekit/pkg/trace"
	"github.com/spf13/viper"
)

const envPrefix = "INVITEKIT"

// envKeys can be supplied through the environment alone, e.g.
// INVITEKIT_DIRECTORY_IDENTITYSTOREID.
var envKeys = []string{
	"database.driver",
	"database.sqlite.path",
	"database.dynamodb.tablePrefix",
	"database.dynamodb.endpoint",
	"aws.region",
	"aws.accessKey",
	"aws.secretKey",
	"aws.endpoint",
	"directory.identityStoreId",
	"auth.region",
	"auth.userPoolId",
	"auth.clientId",
	"invite.frontendUrl",
	"sweep.enabled",
	"sweep.action",
	"sweep.timezone",
	"redis.address",
	"redis.password",
	"notify.url",
	"notify.bearerToken",
	"storage.provider",
	"storage.bucket",
	"storage.accessKey",
	"storage.secretKey",
	"trace.enabled",
	"trace.endpoint",
}

type AppConfig struct {
	Log       log.Conf           `mapstructure:"log"`
	Http      http.Http          `mapstructure:"http"`
	Database  database.Database  `mapstructure:"database"`
	AWS       awsx.Conf          `mapstructure:"aws"`
	Directory directory.Conf     `mapstructure:"directory"`
	Auth      jwt.Auth           `mapstructure:"auth"`
	Invite    service.InviteConf `mapstructure:"invite"`
	Sweep     service.SweepConf  `mapstructure:"sweep"`
	Redis     cache.Redis        `mapstructure:"redis"`
	Notify    notify.Conf        `mapstructure:"notify"`
	Metrics   metrics.Conf       `mapstructure:"metrics"`
	Pprof     pprof.Conf         `mapstructure:"pprof"`
	Storage   storage.Conf       `mapstructure:"storage"`
	Trace     trace.Conf         `mapstructure:"trace"`
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the TOML file at path, overlays INVITEKIT_* environment
// variables, fills defaults and validates the result. An empty path
// loads from the environment only.
func Load(path string) (*AppConfig, *viper.Viper, error) {
	v := newViper(path)
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	log.Infow("config loaded", "path", path, "driver", cfg.Database.Driver)
	return cfg, v, nil
}

func decode(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{Log: *log.SetDefaults()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) SetDefaults() {
	c.Http.SetDefaults()
	c.Database.SetDefaults()
	c.AWS.SetDefaults()
	c.Directory.SetDefaults()
	c.Auth.SetDefaults()
	c.Invite.SetDefaults()
	c.Sweep.SetDefaults()
	c.Redis.SetDefaults()
	c.Notify.SetDefaults()
	c.Metrics.SetDefaults()
	c.Pprof.SetDefaults()
	c.Storage.SetDefaults()
	c.Trace.SetDefaults()
}

func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Sweep.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Trace.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Redis.Enabled() {
		switch c.Redis.Mode {
		case "", "single", "sentinel", "cluster":
		default:
			errs = append(errs, fmt.Errorf("redis.mode: unsupported mode %q", c.Redis.Mode))
		}
	}
	return errors.Join(errs...)
}

// Watch reloads the file on change. Components keep the values they were
// built with, except the sweep action which is read at every run.
func Watch(v *viper.Viper, cfg *AppConfig) {
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Infow("configuration changed, reloading", "file", e.Name, "op", e.Op.String())
		Reload(v, cfg)
	})
	v.WatchConfig()
}

// Reload re-decodes v and applies the reloadable settings to cfg. An
// invalid file is logged and ignored.
func Reload(v *viper.Viper, cfg *AppConfig) {
	next, err := decode(v)
	if err != nil {
		log.Errorw("configuration reload rejected", "error", err)
		return
	}
	action, err := model.ParseSweepAction(next.Sweep.Action)
	if err != nil {
		log.Errorw("configuration reload rejected", "error", err)
		return
	}
	if prev := cfg.Sweep.CurrentAction(); prev != action {
		cfg.Sweep.SetAction(action)
		log.Infow("sweep action updated", "from", prev, "to", action)
	}
}
