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

package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/uuid"
	"github.com/raywall/fast-table-toolkit/pkg/config"
	"github.com/raywall/fast-table-toolkit/storage"
)

// ErrViolation é devolvido (embrulhado em *Violation) quando uma linha
// reprova numa regra.
var ErrViolation = errors.New("rules: row violates rule")

// Violation identifica a regra e a linha reprovadas.
type Violation struct {
	Rule         string
	Message      string
	PartitionKey string
	RowKey       string
}

func (v *Violation) Error() string {
	msg := v.Message
	if msg == "" {
		msg = "expression evaluated to false"
	}
	return fmt.Sprintf("rules: row %s/%s violates %q: %s", v.PartitionKey, v.RowKey, v.Rule, msg)
}

func (v *Violation) Unwrap() error { return ErrViolation }

// RuleManager gerencia a compilação e avaliação de expressões CEL.
type RuleManager struct {
	env *cel.Env
}

// NewRuleManager inicializa o ambiente CEL. A linha fica disponível como
// "row": PartitionKey, RowKey, Timestamp e as propriedades.
func NewRuleManager() (*RuleManager, error) {
	env, err := cel.NewEnv(
		cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("erro fatal CEL init: %w", err)
	}
	return &RuleManager{env: env}, nil
}

// CompileProgram expõe a compilação do CEL. A expressão deve ser booleana.
func (rm *RuleManager) CompileProgram(expr string) (cel.Program, error) {
	ast, issues := rm.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("erro de compilação CEL '%s': %w", expr, issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expressão CEL '%s' não é booleana", expr)
	}
	prg, err := rm.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar programa CEL: %w", err)
	}
	return prg, nil
}

// EvaluateBool avalia uma expressão avulsa sobre a linha.
func (rm *RuleManager) EvaluateBool(expression string, row *storage.Row) (bool, error) {
	if expression == "" {
		return true, nil // Expressão vazia = aprova
	}
	prg, err := rm.CompileProgram(expression)
	if err != nil {
		return false, err
	}
	return evalBool(prg, row)
}

func evalBool(prg cel.Program, row *storage.Row) (bool, error) {
	out, _, err := prg.Eval(map[string]any{"row": Activation(row)})
	if err != nil {
		return false, fmt.Errorf("erro execução CEL: %w", err)
	}
	val, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("resultado não é booleano: %v", out.Value())
	}
	return val, nil
}

// Activation converte a linha para os tipos nativos do CEL. Guid vira
// string e inteiros de 32 bits viram int64.
func Activation(row *storage.Row) map[string]any {
	vars := map[string]any{
		storage.PartitionKeyColumn: row.PartitionKey,
		storage.RowKeyColumn:       row.RowKey,
	}
	if !row.Timestamp.IsZero() {
		vars[storage.TimestampColumn] = row.Timestamp
	}
	row.Properties.Range(func(name string, value any) bool {
		switch t := value.(type) {
		case int32:
			vars[name] = int64(t)
		case uuid.UUID:
			vars[name] = t.String()
		case time.Time:
			vars[name] = t.UTC()
		default:
			vars[name] = value
		}
		return true
	})
	return vars
}

type compiled struct {
	rule config.RowRule
	prg  cel.Program
}

// RuleSet é um conjunto de regras já compiladas, avaliadas em ordem.
type RuleSet struct {
	rules []compiled
}

// Compile prepara as regras de uma tabela. Um conjunto vazio aprova tudo.
func (rm *RuleManager) Compile(rules []config.RowRule) (*RuleSet, error) {
	set := &RuleSet{}
	for _, r := range rules {
		prg, err := rm.CompileProgram(r.Expr)
		if err != nil {
			return nil, fmt.Errorf("regra %s: %w", r.ID, err)
		}
		set.rules = append(set.rules, compiled{rule: r, prg: prg})
	}
	return set, nil
}

// Len devolve o número de regras.
func (s *RuleSet) Len() int { return len(s.rules) }

// Check devolve a primeira violação da linha. Propriedades ausentes fazem a
// avaliação falhar, o que também reprova a linha.
func (s *RuleSet) Check(row *storage.Row) error {
	for _, c := range s.rules {
		ok, err := evalBool(c.prg, row)
		if err != nil {
			return &Violation{Rule: c.rule.ID, Message: err.Error(), PartitionKey: row.PartitionKey, RowKey: row.RowKey}
		}
		if !ok {
			return &Violation{Rule: c.rule.ID, Message: c.rule.Message, PartitionKey: row.PartitionKey, RowKey: row.RowKey}
		}
	}
	return nil
}

// CheckAll valida todas as linhas e devolve a primeira violação.
func (s *RuleSet) CheckAll(rows []*storage.Row) error {
	for _, row := range rows {
		if err := s.Check(row); err != nil {
			return err
		}
	}
	return nil
}
