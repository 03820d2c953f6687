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

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ErrDuplicateRow – o DynamoDB não aceita duas operações sobre o mesmo item
// numa transação.
var ErrDuplicateRow = errors.New("dyndb: row appears twice in the batch")

// DynamoDBClient abstrai o cliente do SDK usado pelo Store.
type DynamoDBClient interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// TableConfig é a configuração física das tabelas.
//
// O nome lógico da tabela recebe TablePrefix. HashKey e SortKey são os
// atributos onde PartitionKey e RowKey são gravados.
type TableConfig struct {
	TablePrefix    string `env:"DYNAMODB_TABLE_PREFIX"`
	HashKey        string `env:"DYNAMODB_HASH_KEY" envDefault:"PartitionKey"`
	SortKey        string `env:"DYNAMODB_SORT_KEY" envDefault:"RowKey"`
	PageSize       int32  `env:"DYNAMODB_PAGE_SIZE" envDefault:"500"`
	ConsistentRead bool   `env:"DYNAMODB_CONSISTENT_READ" envDefault:"false"`
}

func (c TableConfig) physical(table string) string {
	return c.TablePrefix + table
}
