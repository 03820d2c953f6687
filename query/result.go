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

package query

import (
	"github.com/raywall/fast-table-toolkit/storage"
)

// Continuation é um passo do lado do cliente sobre as linhas materializadas.
type Continuation func(seq any) (any, error)

// Then compõe c com next; next recebe a saída de c.
func (c Continuation) Then(next Continuation) Continuation {
	if c == nil {
		return next
	}
	if next == nil {
		return c
	}
	return func(seq any) (any, error) {
		out, err := c(seq)
		if err != nil {
			return nil, err
		}
		return next(out)
	}
}

// Result é o resultado de traduzir uma consulta. É consumido por um único
// caminho de execução e não tem sincronização.
type Result struct {
	Filter      *string
	Select      []string
	Top         *int32
	PostProcess Continuation
}

// StorageQuery devolve a parte do resultado que vai para o serviço.
func (r *Result) StorageQuery() storage.Query {
	q := storage.Query{Filter: r.Filter, Top: r.Top}
	if len(r.Select) > 0 {
		q.Select = append([]string(nil), r.Select...)
	}
	return q
}

// Apply roda a continuação sobre a sequência materializada; sem continuação
// devolve a sequência como veio.
func (r *Result) Apply(seq any) (any, error) {
	if r.PostProcess == nil {
		return seq, nil
	}
	return r.PostProcess(seq)
}

// IsEmpty informa se a tradução não gerou nada para enviar nem aplicar.
func (r *Result) IsEmpty() bool {
	return r.Filter == nil && len(r.Select) == 0 && r.Top == nil && r.PostProcess == nil
}
