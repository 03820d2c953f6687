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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/raywall/fast-table-toolkit/pkg/transport"
	"github.com/raywall/fast-table-toolkit/storage"
)

// Client executa consultas e lotes contra um emulador remoto.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

// TokenSource devolve o token enviado como "Authorization: Bearer".
type TokenSource func(ctx context.Context) (string, error)

// ClientOption configura o Client.
type ClientOption func(*Client)

// WithHTTPClient substitui o http.Client padrão.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithTokenSource autentica as requisições.
func WithTokenSource(ts TokenSource) ClientOption {
	return func(c *Client) { c.token = ts }
}

// NewClient cria um cliente para o emulador em baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExecuteQuery implementa storage.QueryExecutor.
func (c *Client) ExecuteQuery(ctx context.Context, table string, q storage.Query) ([]*storage.Row, error) {
	values := url.Values{}
	if q.Filter != nil {
		values.Set("$filter", *q.Filter)
	}
	if len(q.Select) > 0 {
		values.Set("$select", strings.Join(q.Select, ","))
	}
	if q.Top != nil {
		values.Set("$top", strconv.FormatInt(int64(*q.Top), 10))
	}

	target := c.tableURL(table, "rows")
	if len(values) > 0 {
		target += "?" + values.Encode()
	}

	var resp queryResponse
	if err := c.do(ctx, http.MethodGet, target, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// ExecuteBatch implementa storage.BatchExecutor.
func (c *Client) ExecuteBatch(ctx context.Context, table string, batch storage.Batch) ([]storage.Result, error) {
	req := batchRequest{Operations: make([]operationJSON, len(batch))}
	for i, op := range batch {
		req.Operations[i] = operationJSON{Type: op.Type.String(), Row: op.Row}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("emulator: encode batch: %w", err)
	}

	var resp batchResponse
	if err := c.do(ctx, http.MethodPost, c.tableURL(table, "batch"), body, &resp); err != nil {
		return nil, err
	}

	results := make([]storage.Result, len(resp.Results))
	for i, r := range resp.Results {
		t, err := storage.ParseOperationType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("emulator: result %d: %w", i, err)
		}
		results[i] = storage.Result{Type: t, PartitionKey: r.PartitionKey, RowKey: r.RowKey, ETag: r.ETag}
	}
	return results, nil
}

// Tables lista as tabelas existentes no emulador.
func (c *Client) Tables(ctx context.Context) ([]string, error) {
	var resp tablesResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/tables", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// DeleteTable remove a tabela do emulador.
func (c *Client) DeleteTable(ctx context.Context, table string) error {
	return c.do(ctx, http.MethodDelete, c.baseURL+"/tables/"+url.PathEscape(table), nil, nil)
}

func (c *Client) tableURL(table, suffix string) string {
	return c.baseURL + "/tables/" + url.PathEscape(table) + "/" + suffix
}

func (c *Client) do(ctx context.Context, method, target string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("emulator: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("emulator: token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := transport.CorrelationID(ctx); id != "" {
		req.Header.Set(transport.HeaderCorrelationID, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("emulator: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("emulator: decode response: %w", err)
	}
	return nil
}

// decodeError reconstrói o erro do servidor, incluindo a operação que
// falhou quando o corpo a informa.
func decodeError(resp *http.Response) error {
	var body errorResponse
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &body); err != nil || body.Error.Code == "" {
		return &RemoteError{Status: resp.StatusCode, Code: codeInternal, Message: strings.TrimSpace(string(raw))}
	}

	remote := &RemoteError{Status: resp.StatusCode, Code: body.Error.Code, Message: body.Error.Message}
	if body.Error.Index == nil {
		return remote
	}
	opType, _ := storage.ParseOperationType(body.Error.Operation)
	return &storage.OperationError{
		Index:        *body.Error.Index,
		Type:         opType,
		PartitionKey: body.Error.PartitionKey,
		RowKey:       body.Error.RowKey,
		Err:          remote,
	}
}
