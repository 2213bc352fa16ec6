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

package router

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/invitekit/internal/engine/job"
	"github.com/go-arcade/invitekit/internal/engine/service"
	"github.com/go-arcade/invitekit/pkg/database"
	"github.com/go-arcade/invitekit/pkg/http"
	"github.com/go-arcade/invitekit/pkg/http/jwt"
	"github.com/go-arcade/invitekit/pkg/http/middleware"
	"github.com/go-arcade/invitekit/pkg/trace/inject"
	"github.com/go-arcade/invitekit/pkg/version"
	"github.com/gofiber/fiber/v2"
)

type Router struct {
	Http     *http.Http
	Auth     *jwt.Auth
	Database *database.Database
	Services *service.Services
	Sweep    *job.SweepJob
	Verifier middleware.TokenVerifier
}

func NewRouter(
	httpConf *http.Http,
	auth *jwt.Auth,
	dbConf *database.Database,
	services *service.Services,
	sweep *job.SweepJob,
	verifier middleware.TokenVerifier,
) *Router {
	return &Router{
		Http:     httpConf,
		Auth:     auth,
		Database: dbConf,
		Services: services,
		Sweep:    sweep,
		Verifier: verifier,
	}
}

func (rt *Router) Router() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "invitekit",
		DisableStartupMessage: true,
		ReadTimeout:           time.Duration(rt.Http.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(rt.Http.WriteTimeout) * time.Second,
		IdleTimeout:           time.Duration(rt.Http.IdleTimeout) * time.Second,
		BodyLimit:             rt.Http.BodyLimit,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})

	app.Use(
		middleware.ExceptionMiddleware,
		middleware.RequestMiddleware(),
		inject.FiberMiddleware(middleware.REQUEST_ID),
		middleware.AccessLogMiddleware(rt.Http.AccessLog),
		middleware.CorsMiddleware(rt.Http.CorsOrigins),
		middleware.UnifiedResponseMiddleware(),
	)

	api := app.Group("/api")
	api.Get("/health", rt.health)
	api.Get("/version", func(c *fiber.Ctx) error {
		c.Locals(middleware.DETAIL, version.GetVersion())
		return nil
	})

	auth := middleware.AuthorizationMiddleware(rt.Verifier)
	rt.inviteRouter(api, auth)
	rt.userRouter(api, auth)
	rt.adminRouter(api, auth)

	// 找不到路径时的处理 - 必须在所有路由注册之后
	app.Use(func(c *fiber.Ctx) error {
		return http.WithRepErrMsg(c, http.NotFound.Code, "request path not found", c.Path())
	})

	return app
}

func (rt *Router) health(c *fiber.Ctx) error {
	c.Locals(middleware.DETAIL, fiber.Map{
		"status":    "ok",
		"storage":   rt.Database.Driver,
		"scheduler": rt.Sweep.Running(),
	})
	return nil
}
