//go:build wireinject
// +build wireinject

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

package main

import (
	"github.com/go-arcade/invitekit/internal/engine/bootstrap"
	"github.com/go-arcade/invitekit/internal/engine/config"
	"github.com/go-arcade/invitekit/internal/engine/job"
	"github.com/go-arcade/invitekit/internal/engine/repo"
	"github.com/go-arcade/invitekit/internal/engine/router"
	"github.com/go-arcade/invitekit/internal/engine/service"
	"github.com/go-arcade/invitekit/internal/pkg/awsx"
	"github.com/go-arcade/invitekit/internal/pkg/directory"
	"github.com/go-arcade/invitekit/internal/pkg/notify"
	"github.com/go-arcade/invitekit/internal/pkg/storage"
	"github.com/go-arcade/invitekit/pkg/cache"
	"github.com/go-arcade/invitekit/pkg/http/jwt"
	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/go-arcade/invitekit/pkg/metrics"
	"github.com/go-arcade/invitekit/pkg/pprof"
	"github.com/go-arcade/invitekit/pkg/trace"
	"github.com/google/wire"
)

func initApp(configPath string) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		// 配置层
		config.ProviderSet,
		// 日志层（依赖 config）
		log.ProviderSet,
		// 链路追踪
		trace.ProviderSet,
		// AWS 凭证（依赖 config）
		awsx.ProviderSet,
		// 仓储层（依赖 config, aws）
		repo.ProviderSet,
		// 身份目录（依赖 config, aws）
		directory.ProviderSet,
		// 服务层
		service.ProviderSet,
		// 分布式锁（依赖 config）
		cache.ProviderSet,
		// webhook 通知
		notify.ProviderSet,
		// 清理报告归档（依赖 config, aws）
		storage.ProviderSet,
		// 定时清理
		job.ProviderSet,
		// token 校验
		jwt.ProviderSet,
		// 路由层
		router.ProviderSet,
		// 指标层
		metrics.ProviderSet,
		// pprof
		pprof.ProviderSet,
		// 应用层
		bootstrap.NewApp,
	))
}
