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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConf_Validate(t *testing.T) {
	tests := []struct {
		name    string
		conf    Conf
		wantErr string
	}{
		{name: "defaults", conf: Conf{}},
		{name: "http", conf: Conf{Protocol: "HTTP"}},
		{name: "bad protocol", conf: Conf{Protocol: "zipkin"}, wantErr: "trace.protocol"},
		{name: "bad ratio", conf: Conf{SampleRatio: 1.5}, wantErr: "trace.sampleRatio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := tt.conf
			conf.SetDefaults()
			err := conf.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConf_SetDefaults(t *testing.T) {
	conf := Conf{Protocol: "http"}
	conf.SetDefaults()
	assert.Equal(t, "invitekit", conf.ServiceName)
	assert.Equal(t, "localhost:4318", conf.Endpoint)
	assert.Equal(t, 1.0, conf.SampleRatio)

	conf = Conf{}
	conf.SetDefaults()
	assert.Equal(t, "grpc", conf.Protocol)
	assert.Equal(t, "localhost:4317", conf.Endpoint)
}

func TestProvideTracerProvider_Disabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tp, cleanup, err := ProvideTracerProvider(&Conf{})
	require.NoError(t, err)
	defer cleanup()

	_, span := tp.Tracer("test").Start(t.Context(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestProvideTracerProvider_HTTP(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	conf := &Conf{Enabled: true, Protocol: "http", Endpoint: "http://127.0.0.1:4318", Insecure: true}
	conf.SetDefaults()
	tp, cleanup, err := ProvideTracerProvider(conf)
	require.NoError(t, err)
	assert.IsType(t, &sdktrace.TracerProvider{}, tp)
	cleanup()
}

func TestStartEnd(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := Start(t.Context(), "sweep.primary", attribute.Bool("sweep.dry_run", true))
	End(span, errors.New("store offline"))
	_, span = Start(t.Context(), "sweep.confirm")
	End(span, nil)

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "sweep.primary", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.Bool("sweep.dry_run", true))
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
}
