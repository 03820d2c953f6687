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

package source

import (
	"context"
	"fmt"
	"os"

	"github.com/raywall/fast-table-toolkit/storage"
)

// FileLoader lê um arquivo local. Format vazio é deduzido pela extensão e
// Root, quando informado, aponta a lista dentro do documento ("data.items").
type FileLoader struct {
	Path   string
	Format string
	Root   string
}

func (f *FileLoader) Load(ctx context.Context) ([]*storage.Row, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	format := f.Format
	if format == "" {
		format = FormatOf(f.Path)
	}
	return DecodeAt(data, format, f.Root)
}
