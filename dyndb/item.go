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

package dyndb

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/raywall/fast-table-toolkit/storage"
)

const (
	timestampAttr = storage.TimestampColumn
	etagAttr      = storage.ETagColumn
	typeSuffix    = "@type"
)

// dateLayout tem largura fixa para que a ordem das strings siga a ordem
// cronológica nas comparações do DynamoDB.
const dateLayout = "2006-01-02T15:04:05.000000000Z"

// plain reduz um valor de propriedade a um tipo que o attributevalue
// serializa direto, junto com a dica de tipo a gravar (vazia para String e
// Boolean, que o DynamoDB já distingue).
func plain(v any) (any, storage.EdmType) {
	switch t := v.(type) {
	case int32:
		return t, storage.EdmInt32
	case int64:
		return t, storage.EdmInt64
	case float64:
		switch {
		case math.IsNaN(t):
			return "NaN", storage.EdmDouble
		case math.IsInf(t, 1):
			return "Infinity", storage.EdmDouble
		case math.IsInf(t, -1):
			return "-Infinity", storage.EdmDouble
		}
		return t, storage.EdmDouble
	case uuid.UUID:
		return t.String(), storage.EdmGuid
	case []byte:
		return t, storage.EdmBinary
	case time.Time:
		return t.UTC().Format(dateLayout), storage.EdmDateTime
	}
	return v, ""
}

func marshalValue(v any) (types.AttributeValue, storage.EdmType, error) {
	p, hint := plain(v)
	av, err := attributevalue.Marshal(p)
	if err != nil {
		return nil, "", err
	}
	return av, hint, nil
}

// toItem converte a linha para o formato de item. Propriedades nulas não
// são gravadas.
func (s *Store) toItem(row *storage.Row) (map[string]types.AttributeValue, error) {
	item := map[string]types.AttributeValue{
		s.cfg.HashKey: &types.AttributeValueMemberS{Value: row.PartitionKey},
		s.cfg.SortKey: &types.AttributeValueMemberS{Value: row.RowKey},
	}
	if !row.Timestamp.IsZero() {
		item[timestampAttr] = &types.AttributeValueMemberS{Value: row.Timestamp.UTC().Format(dateLayout)}
	}
	if row.ETag != "" {
		item[etagAttr] = &types.AttributeValueMemberS{Value: row.ETag}
	}

	var err error
	row.Properties.Range(func(name string, value any) bool {
		if value == nil {
			return true
		}
		av, hint, merr := marshalValue(value)
		if merr != nil {
			err = fmt.Errorf("dyndb: marshal %q: %w", name, merr)
			return false
		}
		item[name] = av
		if hint != "" {
			item[name+typeSuffix] = &types.AttributeValueMemberS{Value: string(hint)}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// fromItem reconstrói a linha. As propriedades saem em ordem alfabética,
// já que o item não guarda a ordem original.
func (s *Store) fromItem(item map[string]types.AttributeValue) (*storage.Row, error) {
	pk, ok := item[s.cfg.HashKey].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("dyndb: item without string attribute %q", s.cfg.HashKey)
	}
	rk, ok := item[s.cfg.SortKey].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("dyndb: item without string attribute %q", s.cfg.SortKey)
	}
	row := storage.NewRow(pk.Value, rk.Value)
	if av, ok := item[timestampAttr].(*types.AttributeValueMemberS); ok {
		ts, err := time.Parse(time.RFC3339Nano, av.Value)
		if err != nil {
			return nil, fmt.Errorf("dyndb: timestamp: %w", err)
		}
		row.Timestamp = ts
	}
	if av, ok := item[etagAttr].(*types.AttributeValueMemberS); ok {
		row.ETag = av.Value
	}

	names := make([]string, 0, len(item))
	for name := range item {
		switch {
		case name == s.cfg.HashKey, name == s.cfg.SortKey, name == timestampAttr, name == etagAttr:
			continue
		case strings.HasSuffix(name, typeSuffix):
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var hint storage.EdmType
		if h, ok := item[name+typeSuffix].(*types.AttributeValueMemberS); ok {
			hint = storage.EdmType(h.Value)
		}
		v, err := unmarshalValue(item[name], hint)
		if err != nil {
			return nil, fmt.Errorf("dyndb: property %q: %w", name, err)
		}
		row.Properties.Set(name, v)
	}
	return row, nil
}

func unmarshalValue(av types.AttributeValue, hint storage.EdmType) (any, error) {
	if _, ok := av.(*types.AttributeValueMemberNULL); ok {
		return nil, nil
	}

	switch hint {
	case storage.EdmInt32:
		var n int32
		err := attributevalue.Unmarshal(av, &n)
		return n, err
	case storage.EdmInt64:
		var n int64
		err := attributevalue.Unmarshal(av, &n)
		return n, err
	case storage.EdmDouble:
		if s, ok := av.(*types.AttributeValueMemberS); ok {
			switch s.Value {
			case "NaN":
				return math.NaN(), nil
			case "Infinity":
				return math.Inf(1), nil
			case "-Infinity":
				return math.Inf(-1), nil
			}
			return nil, fmt.Errorf("invalid double %q", s.Value)
		}
		var f float64
		err := attributevalue.Unmarshal(av, &f)
		return f, err
	case storage.EdmGuid:
		var s string
		if err := attributevalue.Unmarshal(av, &s); err != nil {
			return nil, err
		}
		return uuid.Parse(s)
	case storage.EdmDateTime:
		var s string
		if err := attributevalue.Unmarshal(av, &s); err != nil {
			return nil, err
		}
		return time.Parse(time.RFC3339Nano, s)
	case storage.EdmBinary:
		var b []byte
		err := attributevalue.Unmarshal(av, &b)
		return b, err
	case storage.EdmString:
		var s string
		err := attributevalue.Unmarshal(av, &s)
		return s, err
	case storage.EdmBoolean:
		var b bool
		err := attributevalue.Unmarshal(av, &b)
		return b, err
	}

	// itens gravados por outras ferramentas, sem dica
	switch t := av.(type) {
	case *types.AttributeValueMemberS:
		return t.Value, nil
	case *types.AttributeValueMemberBOOL:
		return t.Value, nil
	case *types.AttributeValueMemberB:
		return t.Value, nil
	case *types.AttributeValueMemberN:
		if n, err := strconv.ParseInt(t.Value, 10, 64); err == nil {
			if n >= math.MinInt32 && n <= math.MaxInt32 {
				return int32(n), nil
			}
			return n, nil
		}
		return strconv.ParseFloat(t.Value, 64)
	}
	return nil, fmt.Errorf("unsupported attribute %T", av)
}
