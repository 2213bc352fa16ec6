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

package inject

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func newRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return sr
}

func spanNamed(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func TestFiberMiddleware(t *testing.T) {
	sr := newRecorder(t)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("request_id", "req-1")
		return c.Next()
	})
	app.Use(FiberMiddleware("request_id"))
	var inHandler bool
	app.Get("/api/health", func(c *fiber.Ctx) error {
		inHandler = trace.SpanFromContext(c.UserContext()).SpanContext().IsValid()
		return c.SendStatus(http.StatusOK)
	})
	app.Get("/api/boom", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusBadGateway)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("traceparent", traceparent)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, inHandler)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	ended := sr.Ended()
	require.Len(t, ended, 2)
	health := ended[0]
	assert.Equal(t, "GET /api/health", health.Name())
	assert.Equal(t, trace.SpanKindServer, health.SpanKind())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", health.SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", health.Parent().SpanID().String())
	assert.Equal(t, codes.Error, ended[1].Status().Code)
}

type widget struct {
	ID   uint
	Name string
}

func TestGormPlugin(t *testing.T) {
	sr := newRecorder(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Use(NewGormPlugin("sqlite", true)))
	require.NoError(t, db.AutoMigrate(&widget{}))

	ctx, parent := otel.Tracer("test").Start(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "a"}).Error)
	var got widget
	require.NoError(t, db.WithContext(ctx).First(&got).Error)
	err = db.WithContext(ctx).Where("name = ?", "missing").First(&widget{}).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	parent.End()

	ended := sr.Ended()
	create := spanNamed(ended, "gorm.create")
	require.NotNil(t, create)
	assert.Equal(t, parent.SpanContext().TraceID(), create.SpanContext().TraceID())
	assert.Equal(t, trace.SpanKindClient, create.SpanKind())

	for _, s := range ended {
		if s.Name() == "gorm.query" {
			assert.NotEqual(t, codes.Error, s.Status().Code)
		}
	}
}

func TestRedisHook(t *testing.T) {
	sr := newRecorder(t)

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	client.AddHook(NewRedisHook())

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	assert.ErrorIs(t, client.Get(ctx, "missing").Err(), redis.Nil)
	_, err := client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, "n")
		p.Incr(ctx, "n")
		return nil
	})
	require.NoError(t, err)

	ended := sr.Ended()
	require.NotNil(t, spanNamed(ended, "redis.set"))
	get := spanNamed(ended, "redis.get")
	require.NotNil(t, get)
	assert.NotEqual(t, codes.Error, get.Status().Code)
	assert.NotNil(t, spanNamed(ended, "redis.pipeline"))
}

func TestTransport(t *testing.T) {
	sr := newRecorder(t)

	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("traceparent")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := &http.Client{Transport: Transport(nil)}
	resp, err := client.Post(server.URL, "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.NotEmpty(t, got)
	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "HTTP POST", ended[0].Name())
	assert.Contains(t, got, ended[0].SpanContext().TraceID().String())
}
