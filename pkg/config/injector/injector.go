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

package injector

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/raywall/fast-table-toolkit/envloader"
)

// Regex para capturar padrões ${tipo.chave}
// Ex: ${env.API_KEY}, ${ssm./app/config}, ${secret.db#password}
var pattern = regexp.MustCompile(`\$\{([a-z]+)\.([^}]+)\}`)

// Resolver busca o valor de uma chave numa fonte externa.
type Resolver func(ctx context.Context, key string) (string, error)

type Injector struct {
	resolvers map[string]Resolver
}

// Option registra fontes adicionais.
type Option func(*Injector)

// WithResolver registra a fonte para o prefixo informado (ex: "ssm").
func WithResolver(prefix string, r Resolver) Option {
	return func(i *Injector) { i.resolvers[prefix] = r }
}

// New cria um Injector que já resolve ${env.*}.
func New(opts ...Option) *Injector {
	i := &Injector{resolvers: map[string]Resolver{"env": lookupEnv}}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func lookupEnv(_ context.Context, key string) (string, error) {
	// variável não encontrada resolve para vazio
	return os.Getenv(key), nil
}

func (i *Injector) Inject(ctx context.Context, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("injector: target deve ser um ponteiro para struct não nulo")
	}
	return i.injectRecursive(ctx, v.Elem())
}

func (i *Injector) injectRecursive(ctx context.Context, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for k := 0; k < t.NumField(); k++ {
			field := t.Field(k)
			value := v.Field(k)

			// 1. Processa Tags (env:"...")
			if err := i.processStructTags(field, value); err != nil {
				return err
			}

			// 2. Processa Strings com Interpolação "${...}"
			if value.Kind() == reflect.String && value.CanSet() {
				newValue, err := i.interpolateString(ctx, value.String())
				if err != nil {
					return err
				}
				value.SetString(newValue)
				continue
			}

			// 3. Recursão
			if value.CanSet() || value.Kind() == reflect.Ptr {
				if err := i.injectRecursive(ctx, value); err != nil {
					return err
				}
			}
		}

	case reflect.String:
		if v.CanSet() {
			newValue, err := i.interpolateString(ctx, v.String())
			if err != nil {
				return err
			}
			v.SetString(newValue)
		}

	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && !v.IsNil() {
			return i.injectMap(ctx, v)
		}

	case reflect.Ptr:
		if !v.IsNil() {
			return i.injectRecursive(ctx, v.Elem())
		}

	case reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			if err := i.injectRecursive(ctx, v.Index(j)); err != nil {
				return err
			}
		}
	}
	return nil
}

// processStructTags: a variável da tag env, quando não vazia, sobrescreve o YAML
func (i *Injector) processStructTags(field reflect.StructField, value reflect.Value) error {
	if !value.CanSet() {
		return nil
	}
	tag := field.Tag.Get("env")
	if tag == "" {
		return nil
	}
	if val, exists := os.LookupEnv(tag); exists && val != "" {
		if err := envloader.Set(value, val); err != nil {
			return fmt.Errorf("injector: %s=%q: %w", tag, val, err)
		}
	}
	return nil
}

// interpolateString realiza a substituição baseada em Regex
func (i *Injector) interpolateString(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var err error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		if err != nil {
			return match
		}
		parts := pattern.FindStringSubmatch(match)
		resolve, ok := i.resolvers[parts[1]]
		if !ok {
			err = fmt.Errorf("injector: fonte desconhecida %q em %s", parts[1], match)
			return match
		}
		val, resolveErr := resolve(ctx, parts[2])
		if resolveErr != nil {
			err = fmt.Errorf("injector: %s: %w", match, resolveErr)
			return match
		}
		return val
	})

	return result, err
}

// injectMap lida com mapas dinâmicos
func (i *Injector) injectMap(ctx context.Context, v reflect.Value) error {
	iter := v.MapRange()
	updates := make(map[string]interface{})

	for iter.Next() {
		key := iter.Key()
		elem := iter.Value()
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.IsValid() {
			continue
		}

		switch elem.Kind() {
		case reflect.String:
			newVal, err := i.interpolateString(ctx, elem.String())
			if err != nil {
				return err
			}
			updates[key.String()] = newVal
		case reflect.Map:
			if subMap, ok := elem.Interface().(map[string]interface{}); ok {
				if err := i.injectMap(ctx, reflect.ValueOf(subMap)); err != nil {
					return err
				}
			}
		}
	}

	for k, val := range updates {
		v.SetMapIndex(reflect.ValueOf(k), reflect.ValueOf(val).Convert(v.Type().Elem()))
	}
	return nil
}
