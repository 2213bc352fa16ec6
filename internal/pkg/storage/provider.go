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
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideReportArchive)

func ProvideReportArchive(conf *Conf, awsCfg aws.Config) (*ReportArchive, error) {
	store, err := NewStore(conf, awsCfg)
	if err != nil {
		return nil, err
	}
	return NewReportArchive(store), nil
}
