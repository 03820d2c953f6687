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

package storage

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	jsonETagKey    = "odata.etag"
	jsonTypeSuffix = "@odata.type"
)

// MarshalJSON codifica a linha no formato JSON do serviço: Int64 como string,
// tipos não nativos do JSON acompanhados de "<nome>@odata.type" e a ordem
// das propriedades preservada.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, value any) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(v)
		return nil
	}

	if err := write(PartitionKeyColumn, r.PartitionKey); err != nil {
		return nil, err
	}
	if err := write(RowKeyColumn, r.RowKey); err != nil {
		return nil, err
	}
	if !r.Timestamp.IsZero() {
		if err := write(TimestampColumn, r.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
			return nil, err
		}
	}
	if r.ETag != "" {
		if err := write(jsonETagKey, r.ETag); err != nil {
			return nil, err
		}
	}

	var err error
	r.Properties.Range(func(name string, value any) bool {
		encoded, hint := encodeJSONValue(value)
		if err = write(name, encoded); err != nil {
			return false
		}
		if hint != "" {
			err = write(name+jsonTypeSuffix, string(hint))
		}
		return err == nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: marshal row: %w", err)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeJSONValue(v any) (any, EdmType) {
	switch t := v.(type) {
	case int64:
		return strconv.FormatInt(t, 10), EdmInt64
	case float64:
		switch {
		case math.IsNaN(t):
			return "NaN", EdmDouble
		case math.IsInf(t, 1):
			return "Infinity", EdmDouble
		case math.IsInf(t, -1):
			return "-Infinity", EdmDouble
		}
		return t, EdmDouble
	case uuid.UUID:
		return t.String(), EdmGuid
	case []byte:
		return base64.StdEncoding.EncodeToString(t), EdmBinary
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), EdmDateTime
	}
	return v, ""
}

type jsonField struct {
	key string
	raw json.RawMessage
}

// UnmarshalJSON decodifica o formato produzido por MarshalJSON. Números sem
// dica de tipo viram Edm.Int32 quando inteiros e Edm.Double caso contrário.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("storage: unmarshal row: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("storage: unmarshal row: expected object")
	}

	var fields []jsonField
	hints := make(map[string]EdmType)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("storage: unmarshal row: %w", err)
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("storage: unmarshal row %q: %w", key, err)
		}
		if name, ok := strings.CutSuffix(key, jsonTypeSuffix); ok {
			var hint string
			if err := json.Unmarshal(raw, &hint); err != nil {
				return fmt.Errorf("storage: unmarshal type hint %q: %w", key, err)
			}
			hints[name] = EdmType(hint)
			continue
		}
		fields = append(fields, jsonField{key: key, raw: raw})
	}

	*r = Row{Properties: NewProperties()}
	for _, f := range fields {
		switch f.key {
		case PartitionKeyColumn:
			err = json.Unmarshal(f.raw, &r.PartitionKey)
		case RowKeyColumn:
			err = json.Unmarshal(f.raw, &r.RowKey)
		case jsonETagKey:
			err = json.Unmarshal(f.raw, &r.ETag)
		case TimestampColumn:
			var s string
			if err = json.Unmarshal(f.raw, &s); err == nil {
				r.Timestamp, err = time.Parse(time.RFC3339Nano, s)
			}
		default:
			var v any
			v, err = decodeJSONValue(f.raw, hints[f.key])
			if err == nil {
				r.Properties.Set(f.key, v)
			}
		}
		if err != nil {
			return fmt.Errorf("storage: unmarshal row %q: %w", f.key, err)
		}
	}
	return nil
}

func decodeJSONValue(raw json.RawMessage, hint EdmType) (any, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	switch hint {
	case EdmString:
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	case EdmBoolean:
		var b bool
		err := json.Unmarshal(raw, &b)
		return b, err
	case EdmInt32:
		var n int32
		err := json.Unmarshal(raw, &n)
		return n, err
	case EdmInt64:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			var n int64
			err = json.Unmarshal(raw, &n)
			return n, err
		}
		return strconv.ParseInt(s, 10, 64)
	case EdmDouble:
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			switch s {
			case "NaN":
				return math.NaN(), nil
			case "Infinity":
				return math.Inf(1), nil
			case "-Infinity":
				return math.Inf(-1), nil
			}
			return strconv.ParseFloat(s, 64)
		}
		var f float64
		err := json.Unmarshal(raw, &f)
		return f, err
	case EdmGuid:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return uuid.Parse(s)
	case EdmBinary:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(s)
	case EdmDateTime:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		return t.UTC(), err
	case "":
	default:
		return nil, fmt.Errorf("unknown type hint %q", hint)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case string, bool:
		return t, nil
	case json.Number:
		if n, err := t.Int64(); err == nil && n >= math.MinInt32 && n <= math.MaxInt32 {
			return int32(n), nil
		}
		return t.Float64()
	}
	return nil, fmt.Errorf("unsupported JSON value %s", raw)
}
