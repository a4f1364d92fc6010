// Package store persists users, lessons and vocabulary in DynamoDB.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/lingualoop/learning-api/internal/domain"
)

// DefaultTimeout bounds one DynamoDB call.
const DefaultTimeout = 5 * time.Second

// DynamoAPI is the subset of *dynamodb.Client used by the stores.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrAlreadyExists is returned by conditional creates.
var ErrAlreadyExists = errors.New("item already exists")

type table struct {
	api     DynamoAPI
	name    string
	timeout time.Duration
}

func newTable(api DynamoAPI, name string, timeout time.Duration) table {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return table{api: api, name: name, timeout: timeout}
}

func (t table) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.timeout)
}

func stringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{name: &types.AttributeValueMemberS{Value: value}}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// dbError wraps a DynamoDB failure as a provider failure, keeping the
// operation, table and AWS error code.
func dbError(op, tableName string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: dynamodb %s %s: %s: %w", domain.ErrProviderFailure, op, tableName, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%w: dynamodb %s %s: %w", domain.ErrProviderFailure, op, tableName, err)
}
