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

package config

import "github.com/google/wire"

// ProviderSet 提供配置层相关的依赖
var ProviderSet = wire.NewSet(
	ProvideConf,
	wire.FieldsOf(new(*AppConfig),
		"Log", "Http", "Database", "AWS", "Directory", "Auth",
		"Invite", "Sweep", "Redis", "Notify", "Metrics", "Pprof",
		"Storage", "Trace",
	),
)

// ProvideConf 加载配置文件并开启热加载
func ProvideConf(configPath string) (*AppConfig, error) {
	cfg, v, err := Load(configPath)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		Watch(v, cfg)
	}
	return cfg, nil
}
