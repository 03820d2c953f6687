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

// Package auth mantém tokens de acesso renovados em background para os
// clientes HTTP do toolkit (ex: emulador publicado atrás de um gateway OAuth2).
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotStarted é devolvido por Get antes do primeiro Start bem-sucedido.
var ErrNotStarted = errors.New("auth: manager not started")

// TokenFetcher define a função que sabe como buscar um novo token.
type TokenFetcher func(ctx context.Context) (string, time.Duration, error)

// Manager gerencia o ciclo de vida do token de forma thread-safe.
type Manager struct {
	mu          sync.RWMutex
	token       string
	initialized bool

	fetcher  TokenFetcher
	log      zerolog.Logger
	retry    time.Duration
	stopOnce sync.Once
	stopChan chan struct{}
}

// Option configura o Manager.
type Option func(*Manager)

// WithLogger define o logger usado nas falhas de renovação.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithRetryInterval define a espera após uma renovação com erro (default 10s).
func WithRetryInterval(d time.Duration) Option {
	return func(m *Manager) { m.retry = d }
}

// NewManager cria um gerenciador genérico.
func NewManager(fetcher TokenFetcher, opts ...Option) *Manager {
	m := &Manager{
		fetcher:  fetcher,
		log:      zerolog.Nop(),
		retry:    10 * time.Second,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start busca o primeiro token de forma síncrona e inicia a renovação, que
// dura até Stop ou até o contexto ser cancelado.
func (m *Manager) Start(ctx context.Context) error {
	token, ttl, err := m.fetcher(ctx)
	if err != nil {
		return fmt.Errorf("auth: falha inicial ao obter token: %w", err)
	}

	m.mu.Lock()
	m.token = token
	m.initialized = true
	m.mu.Unlock()

	go m.refreshLoop(ctx, ttl)
	return nil
}

// Get retorna o token atual.
func (m *Manager) Get() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return "", ErrNotStarted
	}
	return m.token, nil
}

// Token tem a assinatura esperada pelos clientes HTTP (token source).
func (m *Manager) Token(context.Context) (string, error) {
	return m.Get()
}

// Stop encerra a renovação. Pode ser chamado mais de uma vez.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Manager) refreshLoop(ctx context.Context, initialTTL time.Duration) {
	timer := time.NewTimer(calculateWait(initialTTL))
	defer timer.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			token, ttl, err := m.fetcher(ctx)
			if err != nil {
				m.log.Warn().Err(err).Dur("retry_in", m.retry).Msg("token refresh failed")
				timer.Reset(m.retry)
				continue
			}
			m.mu.Lock()
			m.token = token
			m.mu.Unlock()
			m.log.Debug().Dur("ttl", ttl).Msg("token refreshed")
			timer.Reset(calculateWait(ttl))
		}
	}
}

// Renova quando passar 80% do tempo de vida.
func calculateWait(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 5 * time.Minute // Fallback se a API não retornar expires_in
	}
	return time.Duration(float64(ttl) * 0.8)
}
