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
	"github.com/go-arcade/invitekit/pkg/http"
	"github.com/go-arcade/invitekit/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) inviteRouter(r fiber.Router, auth fiber.Handler) {
	inviteGroup := r.Group("/invites")
	{
		// public
		inviteGroup.Get("/info/:token", rt.inviteInfo)
		inviteGroup.Post("/claim/:token", rt.claimInvite)

		// admin
		inviteGroup.Post("/create", auth, rt.createInvites)
		inviteGroup.Get("/list", auth, rt.listInvites)
		inviteGroup.Delete("/:token", auth, rt.revokeInvite)
	}
}

func (rt *Router) inviteInfo(c *fiber.Ctx) error {
	info := rt.Services.Invite.Info(c.UserContext(), c.Params("token"))
	c.Locals(middleware.DETAIL, info)
	return nil
}

// claimInvite always answers 200; the outcome is in the result body.
func (rt *Router) claimInvite(c *fiber.Ctx) error {
	var req model.RedeemReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, "invalid request body", c.Path())
	}

	result := rt.Services.Invite.Redeem(c.UserContext(), c.Params("token"), &req)
	c.Locals(middleware.DETAIL, result)
	return nil
}

func (rt *Router) createInvites(c *fiber.Ctx) error {
	var req model.CreateInvitesReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, "invalid request body", c.Path())
	}
	req.IdentityStoreId = storeId(c, req.IdentityStoreId)

	resp, err := rt.Services.Invite.Create(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}

	c.Locals(middleware.DETAIL, resp)
	c.Locals(middleware.OPERATION, "create invites")
	return nil
}

func (rt *Router) listInvites(c *fiber.Ctx) error {
	svc := rt.Services.Invite
	invites, err := svc.List(c.UserContext(), svc.StoreId(storeId(c, "")), c.Query("status"))
	if err != nil {
		return fail(c, err)
	}

	c.Locals(middleware.DETAIL, fiber.Map{
		"count":   len(invites),
		"invites": invites,
	})
	return nil
}

func (rt *Router) revokeInvite(c *fiber.Ctx) error {
	token := c.Params("token")
	if err := rt.Services.Invite.Revoke(c.UserContext(), token); err != nil {
		return fail(c, err)
	}

	done(c, "revoke invite", "token", token)
	return nil
}
