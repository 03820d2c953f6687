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

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raywall/fast-table-toolkit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOAuth2Fetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "my-client", r.Form.Get("client_id"))
		assert.Equal(t, "tables:write", r.Form.Get("scope"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "mock-jwt-xyz", "expires_in": 3600, "token_type": "Bearer"}`))
	}))
	defer server.Close()

	fetcher := NewOAuth2Fetcher(config.AuthConf{
		TokenURL:     server.URL,
		ClientID:     "my-client",
		ClientSecret: "my-secret",
		Scope:        "tables:write",
	}, server.Client())

	token, ttl, err := fetcher(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mock-jwt-xyz", token)
	assert.Equal(t, time.Hour, ttl)
}

func TestNewOAuth2Fetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"status de erro", http.StatusUnauthorized, `{}`, "401"},
		{"token vazio", http.StatusOK, `{"access_token": ""}`, "vazio"},
		{"json inválido", http.StatusOK, `{`, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, _, err := NewOAuth2Fetcher(config.AuthConf{TokenURL: server.URL}, nil)(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
