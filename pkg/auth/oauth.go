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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raywall/fast-table-toolkit/pkg/config"
)

// tokenResponse mapeia a resposta padrão da RFC 6749 (OAuth2)
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // Tempo em segundos
	TokenType   string `json:"token_type"`
}

// NewOAuth2Manager cria o Manager já configurado para Client Credentials.
func NewOAuth2Manager(cfg config.AuthConf, opts ...Option) *Manager {
	return NewManager(NewOAuth2Fetcher(cfg, nil), opts...)
}

// NewOAuth2Fetcher cria a função de busca do fluxo Client Credentials. Um
// client nil usa um http.Client com timeout de 10s.
func NewOAuth2Fetcher(cfg config.AuthConf, client *http.Client) TokenFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return func(ctx context.Context) (string, time.Duration, error) {
		data := url.Values{}
		data.Set("grant_type", "client_credentials")
		data.Set("client_id", cfg.ClientID)
		data.Set("client_secret", cfg.ClientSecret)
		if cfg.Scope != "" {
			data.Set("scope", cfg.Scope)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenURL, strings.NewReader(data.Encode()))
		if err != nil {
			return "", 0, fmt.Errorf("erro ao criar request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return "", 0, fmt.Errorf("erro de conexão oauth: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return "", 0, fmt.Errorf("oauth provider retornou erro: %d", resp.StatusCode)
		}

		var tokenResp tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
			return "", 0, fmt.Errorf("erro decode json token: %w", err)
		}
		if tokenResp.AccessToken == "" {
			return "", 0, fmt.Errorf("access_token veio vazio")
		}
		return tokenResp.AccessToken, time.Duration(tokenResp.ExpiresIn) * time.Second, nil
	}
}
