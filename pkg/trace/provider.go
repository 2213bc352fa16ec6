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

package trace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/go-arcade/invitekit/pkg/version"
	"github.com/google/wire"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var ProviderSet = wire.NewSet(ProvideTracerProvider)

// Conf Trace 配置
type Conf struct {
	Enabled bool `mapstructure:"enabled"`
	// Endpoint OTLP 端点（localhost:4317 或 http://collector:4318）
	Endpoint string `mapstructure:"endpoint"`
	// Protocol grpc 或 http
	Protocol    string            `mapstructure:"protocol"`
	ServiceName string            `mapstructure:"serviceName"`
	Insecure    bool              `mapstructure:"insecure"`
	Headers     map[string]string `mapstructure:"headers"`
	// SampleRatio 根 span 采样率，0 到 1
	SampleRatio   float64 `mapstructure:"sampleRatio"`
	BatchTimeout  int     `mapstructure:"batchTimeout"`  // 秒
	ExportTimeout int     `mapstructure:"exportTimeout"` // 秒
}

func (c *Conf) SetDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "invitekit"
	}
	c.Protocol = strings.ToLower(c.Protocol)
	if c.Protocol == "" {
		c.Protocol = "grpc"
	}
	if c.Endpoint == "" {
		if c.Protocol == "grpc" {
			c.Endpoint = "localhost:4317"
		} else {
			c.Endpoint = "localhost:4318"
		}
	}
	if c.SampleRatio == 0 {
		c.SampleRatio = 1
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = 5
	}
	if c.ExportTimeout == 0 {
		c.ExportTimeout = 30
	}
}

func (c *Conf) Validate() error {
	var errs []error
	if c.Protocol != "grpc" && c.Protocol != "http" {
		errs = append(errs, fmt.Errorf("trace.protocol must be grpc or http, got %q", c.Protocol))
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("trace.sampleRatio must be within [0, 1], got %v", c.SampleRatio))
	}
	return errors.Join(errs...)
}

// ProvideTracerProvider installs the global TracerProvider and W3C
// propagators. When tracing is disabled spans go to a noop provider.
func ProvideTracerProvider(conf *Conf) (oteltrace.TracerProvider, func(), error) {
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	if !conf.Enabled {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, func() {}, nil
	}

	ctx := context.Background()
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(conf.ServiceName),
			semconv.ServiceVersionKey.String(version.Version),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := createExporter(ctx, conf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(time.Duration(conf.BatchTimeout)*time.Second),
			sdktrace.WithExportTimeout(time.Duration(conf.ExportTimeout)*time.Second),
		),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(conf.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	log.Infow("tracing enabled", "protocol", conf.Protocol, "endpoint", conf.Endpoint)

	cleanup := func() {
		// 至少 10 秒，最多 30 秒
		timeout := min(max(time.Duration(conf.ExportTimeout)*time.Second, 10*time.Second), 30*time.Second)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warnw("failed to shutdown tracer provider", "error", err)
		}
	}
	return tp, cleanup, nil
}

func createExporter(ctx context.Context, conf *Conf) (sdktrace.SpanExporter, error) {
	switch conf.Protocol {
	case "grpc":
		return createGRPCExporter(ctx, conf)
	case "http":
		return createHTTPExporter(ctx, conf)
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", conf.Protocol)
	}
}

func createGRPCExporter(ctx context.Context, conf *Conf) (sdktrace.SpanExporter, error) {
	var opts []otlptracegrpc.Option
	if strings.Contains(conf.Endpoint, "://") {
		opts = append(opts, otlptracegrpc.WithEndpointURL(conf.Endpoint))
	} else {
		opts = append(opts, otlptracegrpc.WithEndpoint(conf.Endpoint))
	}
	if conf.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	if len(conf.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(conf.Headers))
	}
	opts = append(opts, otlptracegrpc.WithTimeout(time.Duration(conf.ExportTimeout)*time.Second))
	return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
}

func createHTTPExporter(ctx context.Context, conf *Conf) (sdktrace.SpanExporter, error) {
	var opts []otlptracehttp.Option
	if strings.Contains(conf.Endpoint, "://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(conf.Endpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(conf.Endpoint))
	}
	if conf.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(conf.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(conf.Headers))
	}
	opts = append(opts, otlptracehttp.WithTimeout(time.Duration(conf.ExportTimeout)*time.Second))
	return otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
}
