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

package envloader

import (
	"encoding"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	durationType        = reflect.TypeFor[time.Duration]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Option ajusta o carregamento.
type Option func(*loader)

type loader struct {
	prefix   string
	lookup   func(string) (string, bool)
	onlyZero bool
}

// WithPrefix prefixa o nome de todas as variáveis (ex: "TABLECTL_").
func WithPrefix(p string) Option {
	return func(l *loader) { l.prefix = p }
}

// WithLookup troca a fonte das variáveis; o padrão é os.LookupEnv.
func WithLookup(fn func(string) (string, bool)) Option {
	return func(l *loader) { l.lookup = fn }
}

// OnlyZero preenche apenas campos que ainda estão com o valor zero.
func OnlyZero() Option {
	return func(l *loader) { l.onlyZero = true }
}

// Load preenche dst (ponteiro para struct) pelas tags "env" e "envDefault".
func Load(dst any, opts ...Option) error {
	val := reflect.ValueOf(dst)
	if val.Kind() != reflect.Pointer || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		return &InvalidConfigError{Value: reflect.TypeOf(dst)}
	}

	l := &loader{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}
	return l.fill(val.Elem())
}

// MustLoad é similar ao Load, mas panic em caso de erro
func MustLoad(dst any, opts ...Option) {
	if err := Load(dst, opts...); err != nil {
		panic(err)
	}
}

func (l *loader) fill(val reflect.Value) error {
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field, sf := val.Field(i), typ.Field(i)
		if !field.CanSet() {
			continue
		}

		name, hasTag := sf.Tag.Lookup("env")
		if !hasTag {
			switch {
			case field.Kind() == reflect.Struct && !implementsText(field):
				if err := l.fill(field); err != nil {
					return err
				}
			case field.Kind() == reflect.Pointer && field.Type().Elem().Kind() == reflect.Struct:
				if field.IsNil() {
					field.Set(reflect.New(field.Type().Elem()))
				}
				if err := l.fill(field.Elem()); err != nil {
					return err
				}
			}
			continue
		}

		if l.onlyZero && !field.IsZero() {
			continue
		}
		name = l.prefix + name
		raw, ok := l.lookup(name)
		if !ok || raw == "" {
			raw = sf.Tag.Get("envDefault")
		}
		if raw == "" {
			continue
		}
		if err := Set(field, raw); err != nil {
			return &FieldError{FieldName: sf.Name, EnvVar: name, Value: raw, Err: err}
		}
	}
	return nil
}

// Set converte raw para o tipo de field e atribui. É usado também por quem
// já resolveu o valor por conta própria (ex: o injector de configuração).
func Set(field reflect.Value, raw string) error {
	if !field.CanSet() {
		return nil
	}
	if implementsText(field) {
		return field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
	}
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return &UnsupportedTypeError{Type: field.Type()}
		}
		parts := strings.Split(raw, ",")
		out := reflect.MakeSlice(field.Type(), 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = reflect.Append(out, reflect.ValueOf(p).Convert(field.Type().Elem()))
			}
		}
		field.Set(out)
	default:
		return &UnsupportedTypeError{Type: field.Type()}
	}
	return nil
}

func implementsText(field reflect.Value) bool {
	return field.CanAddr() && reflect.PointerTo(field.Type()).Implements(textUnmarshalerType)
}
