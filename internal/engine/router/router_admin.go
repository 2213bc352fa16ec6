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
	"github.com/go-arcade/invitekit/internal/engine/model"
	"github.com/go-arcade/invitekit/internal/engine/service"
	"github.com/go-arcade/invitekit/pkg/http"
	"github.com/go-arcade/invitekit/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) adminRouter(r fiber.Router, auth fiber.Handler) {
	adminGroup := r.Group("/admin")
	{
		adminGroup.Get("/auth-config", rt.authConfig)

		adminGroup.Post("/cleanup", auth, rt.cleanup)
		adminGroup.Get("/expiring", auth, rt.expiring)
		adminGroup.Get("/stats", auth, rt.stats)
	}
}

// authConfig tells the admin UI which user pool to sign in against.
func (rt *Router) authConfig(c *fiber.Ctx) error {
	c.Locals(middleware.DETAIL, fiber.Map{
		"enabled":    rt.Auth.Enabled(),
		"region":     rt.Auth.Region,
		"userPoolId": rt.Auth.UserPoolId,
		"clientId":   rt.Auth.ClientId,
	})
	return nil
}

func (rt *Router) cleanup(c *fiber.Ctx) error {
	opts := service.SweepOptions{DryRun: c.QueryBool("dryRun", false)}
	if raw := c.Query("action"); raw != "" {
		action, err := model.ParseSweepAction(raw)
		if err != nil {
			return http.WithRepErrMsg(c, http.BadRequest.Code, err.Error(), c.Path())
		}
		opts.Action = action
	}

	report, err := rt.Sweep.Run(c.UserContext(), opts)
	if err != nil {
		return fail(c, err)
	}
	c.Locals(middleware.DETAIL, report)
	return nil
}

func (rt *Router) expiring(c *fiber.Ctx) error {
	days := c.QueryInt("days", service.DefaultUpcomingDays)
	accounts, err := rt.Services.Account.Upcoming(c.UserContext(), days)
	if err != nil {
		return fail(c, err)
	}

	c.Locals(middleware.DETAIL, fiber.Map{
		"days":     days,
		"count":    len(accounts),
		"accounts": accounts,
	})
	return nil
}

func (rt *Router) stats(c *fiber.Ctx) error {
	tenant := rt.Services.Invite.StoreId(storeId(c, ""))
	stats, err := rt.Services.Account.Stats(c.UserContext(), tenant)
	if err != nil {
		return fail(c, err)
	}
	c.Locals(middleware.DETAIL, stats)
	return nil
}
