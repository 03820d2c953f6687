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

// Package mapping descreve como um struct Go vira uma linha da tabela: quais
// membros são partition key, row key, timestamp e ETag, e em que coluna cada
// um dos outros é gravado.
//
// O descritor vem das tags
//
//	type Country struct {
//		Continent string `table:",partitionkey"`
//		Name      string `table:",rowkey"`
//		Area      float64
//		Code      string `table:"IsoCode"`
//		Notes     string `table:"-"`
//	}
//
// ou de um builder fluente, chamado direto ou pela interface Mapper:
//
//	func (Country) MapEntity(b *mapping.Builder) {
//		b.PartitionKey("Continent").RowKey("Name").Property("Code", "IsoCode").Ignore("Notes")
//	}
//
// Os dois caminhos terminam em Builder.Build, que valida as invariantes uma
// vez e devolve um EntityType imutável. O Registry guarda um descritor por tipo.
package mapping
