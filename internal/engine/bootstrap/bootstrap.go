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

package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-arcade/invitekit/internal/engine/config"
	"github.com/go-arcade/invitekit/internal/engine/job"
	"github.com/go-arcade/invitekit/internal/engine/repo"
	"github.com/go-arcade/invitekit/internal/engine/router"
	"github.com/go-arcade/invitekit/internal/engine/service"
	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/go-arcade/invitekit/pkg/metrics"
	"github.com/go-arcade/invitekit/pkg/pprof"
	"github.com/gofiber/fiber/v2"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type App struct {
	HttpApp       *fiber.App
	Sweep         *job.SweepJob
	MetricsServer *metrics.Server
	PprofServer   *pprof.Server
	Tracer        oteltrace.TracerProvider
	Logger        *log.Logger
	Repos         *repo.Repositories
	Services      *service.Services
	AppConf       *config.AppConfig
}

// InitAppFunc init app function type
type InitAppFunc func(configPath string) (*App, func(), error)

func NewApp(
	logger *log.Logger,
	tracer oteltrace.TracerProvider,
	appConf *config.AppConfig,
	repos *repo.Repositories,
	services *service.Services,
	sweep *job.SweepJob,
	rt *router.Router,
	metricsServer *metrics.Server,
	pprofServer *pprof.Server,
) (*App, func(), error) {
	app := &App{
		HttpApp:       rt.Router(),
		Sweep:         sweep,
		MetricsServer: metricsServer,
		PprofServer:   pprofServer,
		Tracer:        tracer,
		Logger:        logger,
		Repos:         repos,
		Services:      services,
		AppConf:       appConf,
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if metricsServer != nil {
			if err := metricsServer.Stop(shutdownCtx); err != nil {
				log.Errorw("failed to stop metrics server", "error", err)
			}
		}
		if pprofServer != nil {
			if err := pprofServer.Stop(shutdownCtx); err != nil {
				log.Errorw("failed to stop pprof server", "error", err)
			}
		}
		log.Sync()
	}

	return app, cleanup, nil
}

// Bootstrap init app, return App instance and cleanup function
func Bootstrap(configFile string, initApp InitAppFunc) (*App, func(), error) {
	// Wire build App (所有依赖都由 wire 自动注入)
	app, cleanup, err := initApp(configFile)
	if err != nil {
		return nil, nil, err
	}
	return app, cleanup, nil
}

// Run start app and wait for exit signal, then gracefully shutdown
func Run(app *App, cleanup func()) {
	appConf := app.AppConf

	app.Sweep.Start()

	if app.MetricsServer != nil {
		if err := app.MetricsServer.Start(); err != nil {
			log.Errorw("metrics server failed", "error", err)
		}
	}
	if app.PprofServer != nil {
		if err := app.PprofServer.Start(); err != nil {
			log.Errorw("pprof server failed", "error", err)
		}
	}

	// set signal listener (graceful shutdown)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// start HTTP server (async)
	go func() {
		addr := appConf.Http.Addr()
		log.Infow("HTTP listener started",
			"address", addr,
			"storage", app.Repos.Store.Name(),
		)
		if err := app.HttpApp.Listen(addr); err != nil {
			log.Errorw("HTTP listener failed",
				"address", addr,
				"error", err,
			)
			select {
			case quit <- syscall.SIGTERM:
			default:
			}
		}
	}()

	// wait for exit signal
	sig := <-quit
	log.Infow("received signal, shutting down gracefully", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), appConf.Http.Shutdown())
	defer shutdownCancel()

	// close HTTP server first so no new sweeps are triggered manually
	if err := app.HttpApp.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	} else {
		log.Info("HTTP server shut down gracefully")
	}

	// wait for a running sweep
	if err := app.Sweep.Stop(shutdownCtx); err != nil {
		log.Warnw("sweep did not finish before shutdown deadline", "error", err)
	} else {
		log.Info("sweep schedule stopped")
	}

	cleanup()

	log.Info("server shutdown complete")
}
