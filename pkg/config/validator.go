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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *ToolConfig) error {
	// 1. Validação Estrutural (Tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica (Regras de negócio da configuração)
	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *ToolConfig) error {
	// 1. Unicidade de tabelas e de regras por tabela
	seenTables := make(map[string]bool)
	for _, t := range cfg.Tables {
		if seenTables[t.Name] {
			return fmt.Errorf("tabela duplicada: '%s'", t.Name)
		}
		seenTables[t.Name] = true

		seenRules := make(map[string]bool)
		for _, r := range t.Rules {
			if seenRules[r.ID] {
				return fmt.Errorf("regra duplicada na tabela '%s': '%s'", t.Name, r.ID)
			}
			seenRules[r.ID] = true
		}
	}

	// 2. TTL do cache
	if cfg.Cache.TTL != "" {
		if d, err := time.ParseDuration(cfg.Cache.TTL); err != nil || d <= 0 {
			return fmt.Errorf("ttl do cache inválido: '%s'", cfg.Cache.TTL)
		}
	}

	// 3. Métricas customizadas com IDs únicos
	seenMetrics := make(map[string]bool)
	for _, d := range cfg.Metrics.Datadog.CustomDefinitions {
		if seenMetrics[d.ID] {
			return fmt.Errorf("métrica duplicada: '%s'", d.ID)
		}
		seenMetrics[d.ID] = true
	}

	return nil
}
