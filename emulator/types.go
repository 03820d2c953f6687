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

package emulator

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/raywall/fast-table-toolkit/memtable"
	"github.com/raywall/fast-table-toolkit/rowfilter"
	"github.com/raywall/fast-table-toolkit/storage"
)

// ErrUnauthorized indica requisição sem o token exigido pelo servidor.
var ErrUnauthorized = errors.New("emulator: unauthorized")

// Backend é o que o servidor precisa para atender as rotas.
type Backend interface {
	storage.QueryExecutor
	storage.BatchExecutor
	Tables() []string
	DeleteTable(name string)
}

type queryResponse struct {
	Value []*storage.Row `json:"value"`
}

type tablesResponse struct {
	Value []string `json:"value"`
}

type operationJSON struct {
	Type string       `json:"type"`
	Row  *storage.Row `json:"row"`
}

type batchRequest struct {
	Operations []operationJSON `json:"operations"`
}

type resultJSON struct {
	Type         string `json:"type"`
	PartitionKey string `json:"partitionKey"`
	RowKey       string `json:"rowKey"`
	ETag         string `json:"etag,omitempty"`
}

type batchResponse struct {
	Results []resultJSON `json:"results"`
}

type errorDetail struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Index        *int   `json:"index,omitempty"`
	Operation    string `json:"operation,omitempty"`
	PartitionKey string `json:"partitionKey,omitempty"`
	RowKey       string `json:"rowKey,omitempty"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

const codeInternal = "InternalError"

// errorCodes associa os erros de storage aos códigos e status HTTP do serviço.
var errorCodes = []struct {
	code   string
	status int
	err    error
}{
	{"Unauthorized", http.StatusUnauthorized, ErrUnauthorized},
	{"EntityAlreadyExists", http.StatusConflict, storage.ErrEntityExists},
	{"ResourceNotFound", http.StatusNotFound, storage.ErrNotFound},
	{"UpdateConditionNotSatisfied", http.StatusPreconditionFailed, storage.ErrPreconditionFailed},
	{"CommandsInBatchActOnDifferentPartitions", http.StatusBadRequest, storage.ErrMixedPartitions},
	{"InvalidDuplicateRow", http.StatusBadRequest, memtable.ErrDuplicateRow},
	{"TooManyOperationsInBatch", http.StatusBadRequest, storage.ErrBatchTooLarge},
	{"NoEntities", http.StatusBadRequest, storage.ErrNoEntities},
	{"InvalidInput", http.StatusBadRequest, rowfilter.ErrSyntax},
}

func classify(err error) (string, int) {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code, c.status
		}
	}
	return codeInternal, http.StatusInternalServerError
}

func sentinel(code string) error {
	for _, c := range errorCodes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}

// RemoteError é um erro devolvido pelo emulador. Unwrap devolve o erro de
// storage correspondente ao código, quando conhecido.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("emulator: %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return sentinel(e.Code)
}
