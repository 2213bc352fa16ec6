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

package job

import (
	"github.com/go-arcade/invitekit/internal/engine/service"
	"github.com/go-arcade/invitekit/internal/pkg/notify"
	"github.com/go-arcade/invitekit/internal/pkg/storage"
	"github.com/go-arcade/invitekit/pkg/cache"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideSweepJob)

func ProvideSweepJob(
	services *service.Services,
	conf *service.SweepConf,
	locker cache.Locker,
	notifier notify.Notifier,
	notifyConf *notify.Conf,
	archive *storage.ReportArchive,
) (*SweepJob, error) {
	return NewSweepJob(services.Account, conf, locker, notifier, notifyConf, archive)
}
