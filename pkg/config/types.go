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

import "time"

// ToolConfig representa a estrutura raiz do arquivo YAML do tablectl.
type ToolConfig struct {
	Version string      `yaml:"version" validate:"required"`
	Backend BackendConf `yaml:"backend" validate:"required"`
	Tables  []TableConf `yaml:"tables" validate:"dive"`
	Cache   CacheConf   `yaml:"cache"`
	Logging LoggingConf `yaml:"logging"`
	Metrics MetricsConf `yaml:"metrics"`
}

// BackendConf escolhe o serviço de tabelas.
type BackendConf struct {
	Type string `yaml:"type" validate:"required,oneof=dynamodb emulator memory"`
	// URL do emulador HTTP (obrigatória para type=emulator)
	URL string `yaml:"url" validate:"required_if=Type emulator,omitempty,url"`

	Region          string `yaml:"region" env:"AWS_REGION"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"` // DynamoDB local, LocalStack
	TablePrefix     string `yaml:"table_prefix"`
	HashKey         string `yaml:"hash_key"`
	SortKey         string `yaml:"sort_key"`
	PageSize        int32  `yaml:"page_size" validate:"gte=0"`
	ConsistentRead  bool   `yaml:"consistent_read"`
	SinglePartition bool   `yaml:"single_partition"`

	Auth AuthConf `yaml:"auth"`
}

// AuthConf autentica o cliente do emulador: token estático ou OAuth2
// client credentials (renovado em background).
type AuthConf struct {
	Token        string `yaml:"token" env:"EMULATOR_TOKEN"`
	TokenURL     string `yaml:"token_url" validate:"omitempty,url"`
	ClientID     string `yaml:"client_id" validate:"required_with=TokenURL"`
	ClientSecret string `yaml:"client_secret" validate:"required_with=TokenURL"`
	Scope        string `yaml:"scope"`
}

// TableConf ajusta o comportamento de escrita de uma tabela.
type TableConf struct {
	Name          string    `yaml:"name" validate:"required,alphanum,min=3,max=63"`
	PartitionMode string    `yaml:"partition_mode" validate:"omitempty,oneof=none sequential parallel"`
	Concurrency   int       `yaml:"concurrency" validate:"gte=0"`
	Rules         []RowRule `yaml:"rules" validate:"dive"`
}

// RowRule é uma expressão CEL avaliada sobre cada linha antes da escrita.
type RowRule struct {
	ID      string `yaml:"id" validate:"required"`
	Expr    string `yaml:"expr" validate:"required"`
	Message string `yaml:"message"`
}

// CacheConf liga o cache de consultas no Redis.
type CacheConf struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr" env:"REDIS_ADDR" validate:"required_if=Enabled true"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
	TTL      string `yaml:"ttl"` // Ex: "30s", "5m"
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format  string `yaml:"format" validate:"omitempty,oneof=json console"`
}

type MetricsConf struct {
	Datadog DatadogConf `yaml:"datadog"`
}

type DatadogConf struct {
	Enabled           bool                     `yaml:"enabled" env:"DD_ENABLED"`
	Addr              string                   `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace         string                   `yaml:"namespace"`
	Tags              []string                 `yaml:"tags"`
	CustomDefinitions []CustomMetricDefinition `yaml:"custom_definitions" validate:"dive"`
}

// CustomMetricDefinition renomeia uma métrica interna (ID) e pode trocar seu tipo.
type CustomMetricDefinition struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"omitempty,oneof=count gauge histogram"`
}

// Table devolve a configuração da tabela pelo nome.
func (c *ToolConfig) Table(name string) (TableConf, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableConf{Name: name}, false
}

// GetTTL devolve o TTL do cache (default: 1 minuto).
func (c CacheConf) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}
