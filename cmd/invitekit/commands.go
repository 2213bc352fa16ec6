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
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/invitekit/internal/engine/bootstrap"
	"github.com/go-arcade/invitekit/internal/engine/model"
	"github.com/go-arcade/invitekit/internal/engine/service"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the daily sweep schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bootstrap 初始化应用
		app, cleanup, err := bootstrap.Bootstrap(configFile, initApp)
		if err != nil {
			return err
		}
		// 启动应用并等待退出信号
		bootstrap.Run(app, cleanup)
		return nil
	},
}

var (
	sweepDryRun bool
	sweepAction string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one sweep now and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := service.SweepOptions{DryRun: sweepDryRun}
		if sweepAction != "" {
			action, err := model.ParseSweepAction(sweepAction)
			if err != nil {
				return err
			}
			opts.Action = action
		}

		app, cleanup, err := bootstrap.Bootstrap(configFile, initApp)
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := app.Sweep.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d of %d due accounts failed", report.Failed, report.Expired)
		}
		return nil
	},
}

var expiringDays int

var expiringCmd = &cobra.Command{
	Use:   "expiring",
	Short: "List active accounts whose entitlement ends soon",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := bootstrap.Bootstrap(configFile, initApp)
		if err != nil {
			return err
		}
		defer cleanup()

		accounts, err := app.Services.Account.Upcoming(cmd.Context(), expiringDays)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"days":     expiringDays,
			"count":    len(accounts),
			"accounts": accounts,
		})
	},
}

var initStoreCmd = &cobra.Command{
	Use:   "init-store",
	Short: "Create the storage tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := bootstrap.Bootstrap(configFile, initApp)
		if err != nil {
			return err
		}
		defer cleanup()

		store := app.Repos.Store
		if err := store.Init(cmd.Context()); err != nil {
			return fmt.Errorf("init %s: %w", store.Name(), err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s storage initialized\n", store.Name())
		return err
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "report due accounts without changing anything")
	sweepCmd.Flags().StringVar(&sweepAction, "action", "", "override the configured action: disable or delete")
	expiringCmd.Flags().IntVar(&expiringDays, "days", service.DefaultUpcomingDays, "look-ahead window in days")
}

func printJSON(w io.Writer, v any) error {
	out, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
