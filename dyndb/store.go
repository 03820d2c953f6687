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
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/raywall/fast-table-toolkit/envloader"
	"github.com/raywall/fast-table-toolkit/rowfilter"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/rs/zerolog"
)

const conditionalCheckFailed = "ConditionalCheckFailed"

// Store implementa storage.QueryExecutor e storage.BatchExecutor.
type Store struct {
	client DynamoDBClient
	cfg    TableConfig
	log    zerolog.Logger
	now    func() time.Time
}

// Option configura um Store.
type Option func(*Store)

// WithLogger define o logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock substitui o relógio usado no Timestamp das linhas.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New cria um Store reutilizável. Campos vazios de cfg são lidos do ambiente
// (DYNAMODB_*) ou recebem os defaults.
func New(client DynamoDBClient, cfg TableConfig, opts ...Option) *Store {
	_ = envloader.Load(&cfg, envloader.OnlyZero())
	if cfg.HashKey == "" {
		cfg.HashKey = storage.PartitionKeyColumn
	}
	if cfg.SortKey == "" {
		cfg.SortKey = storage.RowKeyColumn
	}

	s := &Store{
		client: client,
		cfg:    cfg,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config devolve a configuração efetiva.
func (s *Store) Config() TableConfig { return s.cfg }

// ExecuteQuery faz Scan paginado até esgotar a tabela ou atingir o Top. As
// linhas saem ordenadas por PartitionKey e RowKey. Tabela inexistente
// devolve zero linhas.
func (s *Store) ExecuteQuery(ctx context.Context, table string, q storage.Query) ([]*storage.Row, error) {
	input := &dynamodb.ScanInput{
		TableName:      aws.String(s.cfg.physical(table)),
		ConsistentRead: aws.Bool(s.cfg.ConsistentRead),
	}
	if s.cfg.PageSize > 0 {
		input.Limit = aws.Int32(s.cfg.PageSize)
	}

	builder := expression.NewBuilder()
	var hasExpr bool
	if q.Filter != nil {
		node, err := rowfilter.Parse(*q.Filter)
		if err != nil {
			return nil, fmt.Errorf("dyndb: %w", err)
		}
		if node != nil {
			cond, err := s.condition(node)
			if err != nil {
				return nil, err
			}
			builder = builder.WithFilter(cond)
			hasExpr = true
		}
	}
	if proj, ok := s.projection(q.Select); ok {
		builder = builder.WithProjection(proj)
		hasExpr = true
	}
	if hasExpr {
		ex, err := builder.Build()
		if err != nil {
			return nil, fmt.Errorf("dyndb: build expression: %w", err)
		}
		input.FilterExpression = ex.Filter()
		input.ProjectionExpression = ex.Projection()
		input.ExpressionAttributeNames = ex.Names()
		input.ExpressionAttributeValues = ex.Values()
	}

	var rows []*storage.Row
	pages := 0
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			var notFound *types.ResourceNotFoundException
			if errors.As(err, &notFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("dyndb: scan failed: %w", err)
		}
		pages++
		for _, item := range out.Items {
			row, err := s.fromItem(item)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row.Project(q.Select))
		}
		if q.Top != nil && len(rows) >= int(*q.Top) {
			break
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].PartitionKey != rows[j].PartitionKey {
			return rows[i].PartitionKey < rows[j].PartitionKey
		}
		return rows[i].RowKey < rows[j].RowKey
	})
	if q.Top != nil && int(*q.Top) < len(rows) {
		rows = rows[:*q.Top]
	}
	s.log.Debug().Str("table", table).Int("pages", pages).Int("rows", len(rows)).Msg("scan executed")
	return rows, nil
}

// ExecuteBatch submete o lote como uma única transação.
func (s *Store) ExecuteBatch(ctx context.Context, table string, batch storage.Batch) ([]storage.Result, error) {
	if err := validate(batch); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	items := make([]types.TransactWriteItem, len(batch))
	results := make([]storage.Result, len(batch))
	for i, op := range batch {
		results[i] = storage.Result{Type: op.Type, PartitionKey: op.Row.PartitionKey, RowKey: op.Row.RowKey}
		etag := ""
		if op.Type != storage.Delete {
			etag = newETag()
			results[i].ETag = etag
		}
		item, err := s.writeItem(table, op, now, etag)
		if err != nil {
			return nil, &storage.OperationError{
				Index:        i,
				Type:         op.Type,
				PartitionKey: op.Row.PartitionKey,
				RowKey:       op.Row.RowKey,
				Err:          err,
			}
		}
		items[i] = item
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return nil, s.transactError(batch, err)
	}
	s.log.Debug().Str("table", table).Int("operations", len(batch)).Msg("transaction committed")
	return results, nil
}

func validate(batch storage.Batch) error {
	if len(batch) == 0 {
		return storage.ErrNoEntities
	}
	if len(batch) > storage.MaxBatchSize {
		return fmt.Errorf("%w: %d operations", storage.ErrBatchTooLarge, len(batch))
	}
	seen := make(map[[2]string]bool, len(batch))
	for i, op := range batch {
		if op.Row == nil {
			return fmt.Errorf("dyndb: operation %d has no row", i)
		}
		k := [2]string{op.Row.PartitionKey, op.Row.RowKey}
		if seen[k] {
			return &storage.OperationError{
				Index:        i,
				Type:         op.Type,
				PartitionKey: k[0],
				RowKey:       k[1],
				Err:          ErrDuplicateRow,
			}
		}
		seen[k] = true
	}
	return nil
}

func (s *Store) writeItem(table string, op storage.Operation, now time.Time, etag string) (types.TransactWriteItem, error) {
	name := aws.String(s.cfg.physical(table))
	onFailure := types.ReturnValuesOnConditionCheckFailureAllOld

	switch op.Type {
	case storage.Insert, storage.InsertOrReplace, storage.Replace:
		row := op.Row.Clone()
		row.Timestamp = now
		row.ETag = etag
		item, err := s.toItem(row)
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		put := &types.Put{TableName: name, Item: item}
		cond, ok := s.writeCondition(op)
		if ok {
			ex, err := expression.NewBuilder().WithCondition(cond).Build()
			if err != nil {
				return types.TransactWriteItem{}, err
			}
			put.ConditionExpression = ex.Condition()
			put.ExpressionAttributeNames = ex.Names()
			put.ExpressionAttributeValues = ex.Values()
			put.ReturnValuesOnConditionCheckFailure = onFailure
		}
		return types.TransactWriteItem{Put: put}, nil

	case storage.InsertOrMerge, storage.Merge:
		upd, err := s.mergeUpdate(op.Row, now, etag)
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		builder := expression.NewBuilder().WithUpdate(upd)
		cond, ok := s.writeCondition(op)
		if ok {
			builder = builder.WithCondition(cond)
		}
		ex, err := builder.Build()
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		update := &types.Update{
			TableName:                 name,
			Key:                       s.key(op.Row),
			UpdateExpression:          ex.Update(),
			ExpressionAttributeNames:  ex.Names(),
			ExpressionAttributeValues: ex.Values(),
		}
		if ok {
			update.ConditionExpression = ex.Condition()
			update.ReturnValuesOnConditionCheckFailure = onFailure
		}
		return types.TransactWriteItem{Update: update}, nil

	case storage.Delete:
		cond, _ := s.writeCondition(op)
		ex, err := expression.NewBuilder().WithCondition(cond).Build()
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		return types.TransactWriteItem{Delete: &types.Delete{
			TableName:                           name,
			Key:                                 s.key(op.Row),
			ConditionExpression:                 ex.Condition(),
			ExpressionAttributeNames:            ex.Names(),
			ExpressionAttributeValues:           ex.Values(),
			ReturnValuesOnConditionCheckFailure: onFailure,
		}}, nil
	}
	return types.TransactWriteItem{}, fmt.Errorf("dyndb: unsupported operation %s", op.Type)
}

// writeCondition devolve a condição da operação; ok é false quando a escrita
// é incondicional.
func (s *Store) writeCondition(op storage.Operation) (expression.ConditionBuilder, bool) {
	hash := expression.Name(s.cfg.HashKey)
	switch {
	case op.Type == storage.Insert:
		return expression.AttributeNotExists(hash), true
	case op.Type.ConditionalOnETag():
		cond := expression.AttributeExists(hash)
		if tag := op.Row.ETag; tag != "" && tag != storage.WildcardETag {
			cond = cond.And(expression.Name(etagAttr).Equal(expression.Value(tag)))
		}
		return cond, true
	}
	return expression.ConditionBuilder{}, false
}

// mergeUpdate grava as propriedades informadas e preserva as demais.
// Propriedades nulas são removidas do item.
func (s *Store) mergeUpdate(row *storage.Row, now time.Time, etag string) (expression.UpdateBuilder, error) {
	upd := expression.Set(expression.Name(timestampAttr), expression.Value(now.Format(dateLayout))).
		Set(expression.Name(etagAttr), expression.Value(etag))

	var err error
	row.Properties.Range(func(name string, value any) bool {
		hintName := expression.Name(name + typeSuffix)
		if value == nil {
			upd = upd.Remove(expression.Name(name)).Remove(hintName)
			return true
		}
		p, hint := plain(value)
		if _, _, merr := marshalValue(value); merr != nil {
			err = fmt.Errorf("dyndb: marshal %q: %w", name, merr)
			return false
		}
		upd = upd.Set(expression.Name(name), expression.Value(p))
		if hint != "" {
			upd = upd.Set(hintName, expression.Value(string(hint)))
		} else {
			upd = upd.Remove(hintName)
		}
		return true
	})
	return upd, err
}

func (s *Store) key(row *storage.Row) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		s.cfg.HashKey: &types.AttributeValueMemberS{Value: row.PartitionKey},
		s.cfg.SortKey: &types.AttributeValueMemberS{Value: row.RowKey},
	}
}

// transactError traduz o cancelamento da transação para o erro da operação
// que falhou.
func (s *Store) transactError(batch storage.Batch, err error) error {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return fmt.Errorf("dyndb: transact write failed: %w", err)
	}
	for i, reason := range canceled.CancellationReasons {
		if i >= len(batch) || aws.ToString(reason.Code) != conditionalCheckFailed {
			continue
		}
		op := batch[i]
		var cause error
		switch {
		case op.Type == storage.Insert:
			cause = storage.ErrEntityExists
		case len(reason.Item) == 0:
			cause = storage.ErrNotFound
		default:
			cause = storage.ErrPreconditionFailed
		}
		s.log.Debug().Int("index", i).Str("operation", op.Type.String()).Err(cause).Msg("condition check failed")
		return &storage.OperationError{
			Index:        i,
			Type:         op.Type,
			PartitionKey: op.Row.PartitionKey,
			RowKey:       op.Row.RowKey,
			Err:          cause,
		}
	}
	return fmt.Errorf("dyndb: transaction canceled: %w", err)
}

func newETag() string {
	return `W/"` + uuid.NewString() + `"`
}
