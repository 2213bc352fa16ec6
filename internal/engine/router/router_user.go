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
	"github.com/go-arcade/invitekit/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) userRouter(r fiber.Router, auth fiber.Handler) {
	userGroup := r.Group("/users", auth)
	{
		userGroup.Get("/list", rt.listUsers)
		userGroup.Delete("/:userId", rt.deleteUser)
		userGroup.Post("/:userId/disable", rt.disableUser)
		userGroup.Post("/:userId/enable", rt.enableUser)
	}
}

func (rt *Router) listUsers(c *fiber.Ctx) error {
	tenant := rt.Services.Invite.StoreId(storeId(c, ""))
	accounts, err := rt.Services.Account.List(c.UserContext(), tenant, c.Query("status"))
	if err != nil {
		return fail(c, err)
	}

	c.Locals(middleware.DETAIL, fiber.Map{
		"count": len(accounts),
		"users": accounts,
	})
	return nil
}

func (rt *Router) deleteUser(c *fiber.Ctx) error {
	if err := rt.Services.Account.Delete(c.UserContext(), c.Params("userId")); err != nil {
		return fail(c, err)
	}
	done(c, "delete user", "userId", c.Params("userId"))
	return nil
}

func (rt *Router) disableUser(c *fiber.Ctx) error {
	if err := rt.Services.Account.Disable(c.UserContext(), c.Params("userId")); err != nil {
		return fail(c, err)
	}
	done(c, "disable user", "userId", c.Params("userId"))
	return nil
}

func (rt *Router) enableUser(c *fiber.Ctx) error {
	if err := rt.Services.Account.Enable(c.UserContext(), c.Params("userId")); err != nil {
		return fail(c, err)
	}
	done(c, "enable user", "userId", c.Params("userId"))
	return nil
}
