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

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// ReportArchive stores sweep reports as JSON objects laid out by day.
type ReportArchive struct {
	store Store
}

func NewReportArchive(store Store) *ReportArchive {
	if store == nil {
		store = NopStore{}
	}
	return &ReportArchive{store: store}
}

func (a *ReportArchive) Enabled() bool { return a.store.Enabled() }

// Put writes report under reports/yyyy/mm/dd/<runId>-<pass>.json and
// returns the full object path.
func (a *ReportArchive) Put(ctx context.Context, pass, runId string, at time.Time, report any) (string, error) {
	if !a.store.Enabled() {
		return "", nil
	}
	body, err := sonic.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	key := ReportKey(pass, runId, at)
	fullPath, err := a.store.PutObject(ctx, key, body, "application/json")
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return fullPath, nil
}

func ReportKey(pass, runId string, at time.Time) string {
	return fmt.Sprintf("reports/%s/%s-%s.json", at.Format("2006/01/02"), runId, pass)
}
