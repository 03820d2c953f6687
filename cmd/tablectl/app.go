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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/raywall/fast-table-toolkit/cache"
	"github.com/raywall/fast-table-toolkit/dyndb"
	"github.com/raywall/fast-table-toolkit/emulator"
	"github.com/raywall/fast-table-toolkit/memtable"
	"github.com/raywall/fast-table-toolkit/pkg/auth"
	"github.com/raywall/fast-table-toolkit/pkg/config"
	"github.com/raywall/fast-table-toolkit/pkg/config/injector"
	"github.com/raywall/fast-table-toolkit/pkg/logger"
	"github.com/raywall/fast-table-toolkit/pkg/metrics"
	"github.com/raywall/fast-table-toolkit/pkg/observability"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/rs/zerolog"
)

// Variáveis injetáveis para mocking
var (
	loadAWSConfig = func(ctx context.Context, region string) (aws.Config, error) {
		opts := []func(*awsconfig.LoadOptions) error{}
		if region != "" {
			opts = append(opts, awsconfig.WithRegion(region))
		}
		return awsconfig.LoadDefaultConfig(ctx, opts...)
	}
	lambdaStarter = lambda.Start
)

// backend reúne os dois executores do serviço escolhido.
type backend interface {
	storage.QueryExecutor
	storage.BatchExecutor
}

// app é o estado compartilhado pelos comandos depois do carregamento da
// configuração.
type app struct {
	cfg     *config.ToolConfig
	log     zerolog.Logger
	metrics metrics.Provider
	aws     aws.Config
	store   backend
	closers []func() error
}

// newApp carrega a configuração (interpolando ${env.}, ${ssm.} e ${secret.}),
// prepara logger, métricas e o backend.
func newApp(ctx context.Context, path string, logOut io.Writer) (*app, error) {
	awsCfg, err := loadAWSConfig(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar config AWS: %w", err)
	}

	inj := injector.New(
		injector.WithSSM(ssm.NewFromConfig(awsCfg)),
		injector.WithSecrets(secretsmanager.NewFromConfig(awsCfg)),
	)
	cfg, err := config.Load(ctx, path, inj)
	if err != nil {
		return nil, err
	}
	if cfg.Backend.Region != "" {
		awsCfg.Region = cfg.Backend.Region
	}

	a := &app{
		cfg: cfg,
		log: logger.ConfigureWriter(cfg.Logging, logOut),
		aws: awsCfg,
	}

	provider, err := observability.SetupMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	a.metrics = provider
	if c, ok := provider.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	store, err := a.connect(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.store = store
	return a, nil
}

// connect escolhe o backend e, se habilitado, o embrulha no cache Redis.
func (a *app) connect(ctx context.Context) (backend, error) {
	conf := a.cfg.Backend

	var store backend
	switch conf.Type {
	case "memory":
		opts := []memtable.Option{memtable.WithLogger(a.log)}
		if conf.SinglePartition {
			opts = append(opts, memtable.WithSinglePartition())
		}
		store = memtable.New(opts...)
	case "emulator":
		var opts []emulator.ClientOption
		switch {
		case conf.Auth.TokenURL != "":
			mgr := auth.NewOAuth2Manager(conf.Auth, auth.WithLogger(a.log))
			if err := mgr.Start(ctx); err != nil {
				return nil, err
			}
			a.closers = append(a.closers, func() error { mgr.Stop(); return nil })
			opts = append(opts, emulator.WithTokenSource(mgr.Token))
		case conf.Auth.Token != "":
			token := conf.Auth.Token
			opts = append(opts, emulator.WithTokenSource(func(context.Context) (string, error) { return token, nil }))
		}
		store = emulator.NewClient(conf.URL, opts...)
	case "dynamodb":
		client := dynamodb.NewFromConfig(a.aws, func(o *dynamodb.Options) {
			if conf.Endpoint != "" {
				o.BaseEndpoint = aws.String(conf.Endpoint)
			}
		})
		store = dyndb.New(client, dyndb.TableConfig{
			TablePrefix:    conf.TablePrefix,
			HashKey:        conf.HashKey,
			SortKey:        conf.SortKey,
			PageSize:       conf.PageSize,
			ConsistentRead: conf.ConsistentRead,
		}, dyndb.WithLogger(a.log))
	default:
		return nil, fmt.Errorf("backend desconhecido: %s", conf.Type)
	}
	a.log.Debug().Str("backend", conf.Type).Msg("backend ready")

	if !a.cfg.Cache.Enabled {
		return store, nil
	}
	client := cache.NewRedisClient(a.cfg.Cache.Addr, a.cfg.Cache.Password, a.cfg.Cache.DB)
	a.closers = append(a.closers, client.Close)
	return cache.NewExecutor(store, cache.NewRedisStore(client), a.cfg.Cache.GetTTL(),
		cache.WithLogger(a.log),
		cache.WithMetrics(a.metrics),
	), nil
}

// Close libera conexões e faz o flush das métricas.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
