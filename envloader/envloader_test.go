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

package envloader

import (
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) Option {
	return WithLookup(func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	})
}

type cacheConf struct {
	Addr string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	TTL  time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	DB   uint8         `env:"REDIS_DB"`
}

type toolConf struct {
	Region   string   `env:"AWS_REGION"`
	PageSize int32    `env:"PAGE_SIZE" envDefault:"500"`
	Ratio    float64  `env:"RATIO"`
	Debug    bool     `env:"DEBUG" envDefault:"false"`
	Tables   []string `env:"TABLES"`
	Bind     net.IP   `env:"BIND"`
	Cache    cacheConf
	Metrics  *struct {
		Enabled bool `env:"DD_ENABLED"`
	}
	Ignored string
	hidden  string `env:"HIDDEN"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg toolConf
		require.NoError(t, Load(&cfg, env(nil)))

		assert.Equal(t, int32(500), cfg.PageSize)
		assert.Equal(t, "localhost:6379", cfg.Cache.Addr)
		assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
		assert.False(t, cfg.Debug)
		require.NotNil(t, cfg.Metrics)
		assert.False(t, cfg.Metrics.Enabled)
	})

	t.Run("ambiente", func(t *testing.T) {
		var cfg toolConf
		require.NoError(t, Load(&cfg, env(map[string]string{
			"AWS_REGION": "sa-east-1",
			"PAGE_SIZE":  "25",
			"RATIO":      "0.5",
			"DEBUG":      "TRUE",
			"TABLES":     "Countries, Capitals,,",
			"BIND":       "10.0.0.1",
			"CACHE_TTL":  "30s",
			"REDIS_DB":   "3",
			"DD_ENABLED": "1",
			"HIDDEN":     "x",
		})))

		assert.Equal(t, "sa-east-1", cfg.Region)
		assert.Equal(t, int32(25), cfg.PageSize)
		assert.Equal(t, 0.5, cfg.Ratio)
		assert.True(t, cfg.Debug)
		assert.Equal(t, []string{"Countries", "Capitals"}, cfg.Tables)
		assert.Equal(t, "10.0.0.1", cfg.Bind.String())
		assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
		assert.Equal(t, uint8(3), cfg.Cache.DB)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Empty(t, cfg.hidden)
	})

	t.Run("variável vazia usa default", func(t *testing.T) {
		var cfg toolConf
		require.NoError(t, Load(&cfg, env(map[string]string{"PAGE_SIZE": ""})))
		assert.Equal(t, int32(500), cfg.PageSize)
	})

	t.Run("prefixo", func(t *testing.T) {
		var cfg toolConf
		require.NoError(t, Load(&cfg, WithPrefix("TABLECTL_"), env(map[string]string{
			"AWS_REGION":          "us-east-1",
			"TABLECTL_AWS_REGION": "eu-west-1",
		})))
		assert.Equal(t, "eu-west-1", cfg.Region)
	})

	t.Run("only zero", func(t *testing.T) {
		cfg := toolConf{Region: "us-east-1", PageSize: 10}
		require.NoError(t, Load(&cfg, OnlyZero(), env(map[string]string{
			"AWS_REGION": "sa-east-1",
			"RATIO":      "2",
		})))
		assert.Equal(t, "us-east-1", cfg.Region)
		assert.Equal(t, int32(10), cfg.PageSize)
		assert.Equal(t, 2.0, cfg.Ratio)
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Run("destino inválido", func(t *testing.T) {
		var invalid *InvalidConfigError

		assert.ErrorAs(t, Load(toolConf{}), &invalid)
		assert.ErrorAs(t, Load(new(string)), &invalid)
		assert.ErrorAs(t, Load(nil), &invalid)
		assert.Contains(t, invalid.Error(), "nil")
	})

	t.Run("conversão", func(t *testing.T) {
		var cfg toolConf
		err := Load(&cfg, env(map[string]string{"PAGE_SIZE": "muitos"}))

		var fieldErr *FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "PageSize", fieldErr.FieldName)
		assert.Equal(t, "PAGE_SIZE", fieldErr.EnvVar)

		var numErr *strconv.NumError
		assert.True(t, errors.As(err, &numErr))
	})

	t.Run("overflow", func(t *testing.T) {
		var cfg toolConf
		assert.Error(t, Load(&cfg, env(map[string]string{"REDIS_DB": "300"})))
	})

	t.Run("tipo não suportado", func(t *testing.T) {
		var cfg struct {
			Ports []int `env:"PORTS"`
		}
		err := Load(&cfg, env(map[string]string{"PORTS": "1,2"}))

		var unsupported *UnsupportedTypeError
		assert.ErrorAs(t, err, &unsupported)
	})

	t.Run("must load", func(t *testing.T) {
		assert.Panics(t, func() { MustLoad(toolConf{}) })
	})
}
