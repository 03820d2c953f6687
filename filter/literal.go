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

package filter

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raywall/fast-table-toolkit/storage"
)

// DateTimeLayout é o layout de ida e volta dos literais datetime.
const DateTimeLayout = "2006-01-02T15:04:05.0000000Z"

// FormatLiteral formata v como literal de filtro. Strings vão entre aspas
// simples sem escape. Tipos desconhecidos saem via fmt.Sprint, entre aspas.
func FormatLiteral(v any) string {
	n, err := storage.Normalize(v)
	if err != nil {
		return "'" + fmt.Sprint(v) + "'"
	}
	switch t := n.(type) {
	case nil:
		return "null"
	case string:
		return "'" + t + "'"
	case bool:
		return strconv.FormatBool(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10) + "L"
	case float64:
		return FormatDouble(t)
	case uuid.UUID:
		return "guid'" + t.String() + "'"
	case []byte:
		return "X'" + hex.EncodeToString(t) + "'"
	case time.Time:
		return "datetime'" + t.UTC().Format(DateTimeLayout) + "'"
	}
	return "'" + fmt.Sprint(v) + "'"
}

// FormatDouble formata f no padrão "#.0#": de uma a duas casas decimais,
// arredondando metade para longe do zero, sem zero à esquerda na parte
// inteira (0.5 sai ".5").
func FormatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	s := strconv.FormatFloat(math.Abs(f), 'f', -1, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	digits := intPart + pad(frac, 2)[:2]
	if len(frac) > 2 && frac[2] >= '5' {
		digits = increment(digits)
	}
	intPart, frac = digits[:len(digits)-2], digits[len(digits)-2:]

	intPart = strings.TrimLeft(intPart, "0")
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		frac = "0"
	}

	out := intPart + "." + frac
	if f < 0 && (intPart != "" || frac != "0") {
		out = "-" + out
	}
	return out
}

func pad(s string, n int) string {
	for len(s) < n {
		s += "0"
	}
	return s
}

// increment soma um a uma string de dígitos decimais.
func increment(digits string) string {
	b := []byte(digits)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}
