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

package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/rs/zerolog"
)

// SQSClient define a interface necessária para o consumo (permite Mocking)
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessageBatch(ctx context.Context, params *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error)
}

// SQSLoader drena até Max mensagens da fila. Cada mensagem carrega uma
// linha (ou lista de linhas) em JSON. As mensagens só saem da fila em Ack.
type SQSLoader struct {
	Client   SQSClient
	QueueURL string
	Max      int
	Wait     int32 // long polling, em segundos
	Logger   zerolog.Logger

	mu       sync.Mutex
	receipts []string
}

func (l *SQSLoader) Load(ctx context.Context) ([]*storage.Row, error) {
	max := l.Max
	if max <= 0 {
		max = 100
	}

	var rows []*storage.Row
	received := 0
	for received < max {
		batch := int32(10)
		if left := max - received; left < 10 {
			batch = int32(left)
		}
		out, err := l.Client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(l.QueueURL),
			MaxNumberOfMessages: batch,
			WaitTimeSeconds:     l.Wait,
		})
		if err != nil {
			return nil, fmt.Errorf("erro no SQS: %w", err)
		}
		if len(out.Messages) == 0 {
			break
		}
		for _, msg := range out.Messages {
			decoded, err := Decode([]byte(aws.ToString(msg.Body)), "json")
			if err != nil {
				return nil, fmt.Errorf("mensagem %s: %w", aws.ToString(msg.MessageId), err)
			}
			rows = append(rows, decoded...)
			l.remember(msg)
		}
		received += len(out.Messages)
	}

	l.Logger.Debug().Str("queue", l.QueueURL).Int("messages", received).Int("rows", len(rows)).Msg("fila drenada")
	return rows, nil
}

func (l *SQSLoader) remember(msg types.Message) {
	l.mu.Lock()
	l.receipts = append(l.receipts, aws.ToString(msg.ReceiptHandle))
	l.mu.Unlock()
}

// Ack remove da fila as mensagens recebidas, em blocos de 10.
func (l *SQSLoader) Ack(ctx context.Context) error {
	l.mu.Lock()
	receipts := l.receipts
	l.receipts = nil
	l.mu.Unlock()

	for i := 0; i < len(receipts); i += 10 {
		end := i + 10
		if end > len(receipts) {
			end = len(receipts)
		}
		entries := make([]types.DeleteMessageBatchRequestEntry, 0, end-i)
		for j, handle := range receipts[i:end] {
			entries = append(entries, types.DeleteMessageBatchRequestEntry{
				Id:            aws.String(fmt.Sprintf("m%d", i+j)),
				ReceiptHandle: aws.String(handle),
			})
		}
		out, err := l.Client.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
			QueueUrl: aws.String(l.QueueURL),
			Entries:  entries,
		})
		if err != nil {
			return fmt.Errorf("erro ao confirmar mensagens: %w", err)
		}
		if len(out.Failed) > 0 {
			return fmt.Errorf("erro ao confirmar %d mensagens: %s", len(out.Failed), aws.ToString(out.Failed[0].Message))
		}
	}
	return nil
}
