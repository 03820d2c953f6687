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
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/raywall/fast-table-toolkit/pkg/transport"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/rs/zerolog"
)

// Server atende o protocolo HTTP do emulador.
type Server struct {
	backend Backend
	log     zerolog.Logger
	token   string
	router  *mux.Router
}

// Option configura o Server.
type Option func(*Server)

// WithLogger define o logger do servidor e do middleware de observabilidade.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithBearerToken exige "Authorization: Bearer <token>" em todas as rotas.
func WithBearerToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// NewServer registra as rotas sobre o backend informado.
func NewServer(backend Backend, opts ...Option) *Server {
	s := &Server{backend: backend, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	router := mux.NewRouter()
	router.Use(transport.ObservabilityMiddleware(s.log))
	if s.token != "" {
		router.Use(s.authenticate)
	}
	router.HandleFunc("/tables", s.listTables).Methods(http.MethodGet)
	router.HandleFunc("/tables/{table}", s.deleteTable).Methods(http.MethodDelete)
	router.HandleFunc("/tables/{table}/rows", s.query).Methods(http.MethodGet)
	router.HandleFunc("/tables/{table}/batch", s.batch).Methods(http.MethodPost)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendResponse(w, http.StatusNotFound, errorResponse{Error: errorDetail{
			Code:    "ResourceNotFound",
			Message: fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path),
		}})
	})
	s.router = router
	return s
}

// Handler devolve o roteador já com o middleware aplicado.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe atende em addr até o contexto ser cancelado.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("emulator listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info().Msg("emulator shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	expected := "Bearer " + s.token
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), []byte(expected)) != 1 {
			sendResponse(w, http.StatusUnauthorized, errorResponse{Error: errorDetail{
				Code:    "Unauthorized",
				Message: "missing or invalid bearer token",
			}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	tables := s.backend.Tables()
	if tables == nil {
		tables = []string{}
	}
	sendResponse(w, http.StatusOK, tablesResponse{Value: tables})
}

func (s *Server) deleteTable(w http.ResponseWriter, r *http.Request) {
	s.backend.DeleteTable(mux.Vars(r)["table"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		sendResponse(w, http.StatusBadRequest, errorResponse{Error: errorDetail{Code: "InvalidInput", Message: err.Error()}})
		return
	}

	rows, err := s.backend.ExecuteQuery(r.Context(), mux.Vars(r)["table"], q)
	if err != nil {
		s.sendError(r, w, err)
		return
	}
	if rows == nil {
		rows = []*storage.Row{}
	}
	sendResponse(w, http.StatusOK, queryResponse{Value: rows})
}

func (s *Server) batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendResponse(w, http.StatusBadRequest, errorResponse{Error: errorDetail{Code: "InvalidInput", Message: err.Error()}})
		return
	}

	batch := make(storage.Batch, len(req.Operations))
	for i, op := range req.Operations {
		t, err := storage.ParseOperationType(op.Type)
		if err == nil && op.Row == nil {
			err = fmt.Errorf("operation %d has no row", i)
		}
		if err != nil {
			idx := i
			sendResponse(w, http.StatusBadRequest, errorResponse{Error: errorDetail{Code: "InvalidInput", Message: err.Error(), Index: &idx}})
			return
		}
		batch[i] = storage.Operation{Type: t, Row: op.Row}
	}

	results, err := s.backend.ExecuteBatch(r.Context(), mux.Vars(r)["table"], batch)
	if err != nil {
		s.sendError(r, w, err)
		return
	}

	resp := batchResponse{Results: make([]resultJSON, len(results))}
	for i, res := range results {
		resp.Results[i] = resultJSON{
			Type:         res.Type.String(),
			PartitionKey: res.PartitionKey,
			RowKey:       res.RowKey,
			ETag:         res.ETag,
		}
	}
	sendResponse(w, http.StatusOK, resp)
}

func (s *Server) sendError(r *http.Request, w http.ResponseWriter, err error) {
	code, status := classify(err)
	detail := errorDetail{Code: code, Message: err.Error()}

	var opErr *storage.OperationError
	if errors.As(err, &opErr) {
		idx := opErr.Index
		detail.Index = &idx
		detail.Operation = opErr.Type.String()
		detail.PartitionKey = opErr.PartitionKey
		detail.RowKey = opErr.RowKey
	}

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	}
	sendResponse(w, status, errorResponse{Error: detail})
}

func parseQuery(r *http.Request) (storage.Query, error) {
	var q storage.Query
	values := r.URL.Query()

	if values.Has("$filter") {
		f := values.Get("$filter")
		q.Filter = &f
	}
	if sel := values.Get("$select"); sel != "" {
		for _, c := range strings.Split(sel, ",") {
			if c = strings.TrimSpace(c); c != "" {
				q.Select = append(q.Select, c)
			}
		}
	}
	if top := values.Get("$top"); top != "" {
		n, err := strconv.ParseInt(top, 10, 32)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid $top %q", top)
		}
		t := int32(n)
		q.Top = &t
	}
	return q, nil
}

func sendResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
