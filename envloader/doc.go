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

// Package envloader preenche structs a partir de variáveis de ambiente.
//
// Cada campo com a tag `env:"NOME"` recebe o valor da variável NOME; quando
// ela não existe, vale a tag `envDefault`. Structs aninhadas (e ponteiros
// para struct) são percorridas recursivamente.
//
// Tipos suportados: string, inteiros, uints, floats, bool, time.Duration,
// []string (separado por vírgula) e qualquer encoding.TextUnmarshaler.
//
//	type TableConfig struct {
//		TablePrefix string `env:"DYNAMODB_TABLE_PREFIX"`
//		PageSize    int32  `env:"DYNAMODB_PAGE_SIZE" envDefault:"500"`
//	}
//
//	cfg := TableConfig{PageSize: 100}
//	err := envloader.Load(&cfg, envloader.OnlyZero())
//
// Com OnlyZero, valores já preenchidos pelo chamador têm precedência sobre o
// ambiente e sobre os defaults.
package envloader
