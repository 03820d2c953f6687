// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"

	"github.com/raywall/fast-table-toolkit/pkg/config/injector"
	"gopkg.in/yaml.v3"
)

// Load lê, interpola e valida o arquivo de configuração.
func Load(ctx context.Context, path string, inj *injector.Injector) (*ToolConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(ctx, data, inj)
}

// Parse decodifica o YAML. Um injector nil usa apenas variáveis de ambiente.
func Parse(ctx context.Context, data []byte, inj *injector.Injector) (*ToolConfig, error) {
	var cfg ToolConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if inj == nil {
		inj = injector.New()
	}
	if err := inj.Inject(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := NewValidator().Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
