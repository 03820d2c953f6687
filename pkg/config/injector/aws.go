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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Interfaces para abstrair o SDK da AWS (Permite Mocking)
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// WithSSM resolve ${ssm./caminho/do/parametro}, sempre com decrypt.
func WithSSM(client SSMClient) Option {
	return WithResolver("ssm", func(ctx context.Context, path string) (string, error) {
		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(path),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return "", fmt.Errorf("erro no SSM GetParameter: %w", err)
		}
		if out.Parameter == nil {
			return "", fmt.Errorf("parâmetro %s sem valor", path)
		}
		return aws.ToString(out.Parameter.Value), nil
	})
}

// WithSecrets resolve ${secret.id} e, para segredos JSON, ${secret.id#campo}.
func WithSecrets(client SecretsClient) Option {
	return WithResolver("secret", func(ctx context.Context, key string) (string, error) {
		secretID, field, hasField := strings.Cut(key, "#")
		out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretID),
		})
		if err != nil {
			return "", fmt.Errorf("erro no SecretsManager: %w", err)
		}
		val := aws.ToString(out.SecretString)
		if !hasField {
			return val, nil
		}

		var data map[string]interface{}
		if err := json.Unmarshal([]byte(val), &data); err != nil {
			return "", fmt.Errorf("segredo %s não é JSON: %w", secretID, err)
		}
		v, ok := data[field]
		if !ok {
			return "", fmt.Errorf("segredo %s sem o campo %s", secretID, field)
		}
		return fmt.Sprintf("%v", v), nil
	})
}
