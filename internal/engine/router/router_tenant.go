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
	"errors"
	"strings"

	"github.com/go-arcade/invitekit/internal/engine/job"
	"github.com/go-arcade/invitekit/internal/engine/service"
	"github.com/go-arcade/invitekit/pkg/http"
	"github.com/go-arcade/invitekit/pkg/http/middleware"
	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/gofiber/fiber/v2"
)

const HeaderIdentityStoreId = "X-Identity-Store-Id"

// storeId resolves the tenant from the header, then the storeId query
// parameter, then body. The configured default is applied by the service.
func storeId(c *fiber.Ctx, body string) string {
	if v := strings.TrimSpace(c.Get(HeaderIdentityStoreId)); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Query("storeId")); v != "" {
		return v
	}
	return strings.TrimSpace(body)
}

// fail writes the error envelope for a service error.
func fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, job.ErrBusy) {
		return http.WithRepErrMsg(c, http.Conflict.Code, err.Error(), c.Path())
	}

	code := service.CodeOf(err)
	var rep *http.Response
	switch code {
	case service.CodeInvalidArgument:
		rep = http.BadRequest
	case service.CodeNotFound:
		rep = http.NotFound
	case service.CodeAlreadyClaimed:
		rep = http.AlreadyClaimed
	case service.CodeInvalidState:
		rep = http.InvalidState
	case service.CodeDirectoryUnavailable:
		rep = http.DirectoryUnavailable
	default:
		log.Errorw("request failed", "path", c.Path(), "error", err)
		return http.WithRepErr(c, http.InternalError, c.Path())
	}

	msg := rep.Msg
	var svcErr *service.Error
	if errors.As(err, &svcErr) && svcErr.Msg != "" {
		msg = svcErr.Msg
	}
	return http.WithRepErrMsg(c, rep.Code, msg, c.Path())
}

// done marks a payload-less admin mutation as succeeded and records who
// performed it.
func done(c *fiber.Ctx, operation string, keysAndValues ...any) {
	principal := ""
	if claims := middleware.ClaimsFrom(c); claims != nil {
		principal = claims.Principal()
	}
	log.Infow("admin "+operation, append([]any{"principal", principal}, keysAndValues...)...)
	c.Locals(middleware.OPERATION, operation)
}
