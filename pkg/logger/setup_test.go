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

package logger

import (
	"bytes"
	"testing"

	"github.com/raywall/fast-table-toolkit/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConfigure(t *testing.T) {
	t.Run("Default Level Info", func(t *testing.T) {
		_ = Configure(config.LoggingConf{Enabled: true})
		assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	})

	t.Run("Custom Level Debug", func(t *testing.T) {
		_ = Configure(config.LoggingConf{Enabled: true, Level: "DEBUG"})
		assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	})

	t.Run("JSON output", func(t *testing.T) {
		var buf bytes.Buffer
		log := ConfigureWriter(config.LoggingConf{Enabled: true, Level: "info", Format: "json"}, &buf)
		log.Info().Str("table", "Countries").Msg("query executed")
		assert.Contains(t, buf.String(), `"table":"Countries"`)
		assert.Contains(t, buf.String(), `"component":"tablectl"`)
	})

	t.Run("Disabled Logger", func(t *testing.T) {
		var buf bytes.Buffer
		log := ConfigureWriter(config.LoggingConf{Enabled: false}, &buf)
		log.Info().Msg("teste")
		assert.Empty(t, buf.String())
	})

	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}
