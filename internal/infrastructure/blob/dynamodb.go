package blob

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
)

// dynamoItem is the table layout: partition key "key", binary "content"
type dynamoItem struct {
	Key       string `dynamodbav:"key"`
	Content   []byte `dynamodbav:"content"`
	UpdatedAt int64  `dynamodbav:"updated_at"`
}

// DynamoDBStore keeps each blob as one item of a single table
type DynamoDBStore struct {
	table string
	cli   *dynamodb.Client
}

func NewDynamoDBStore(table string, cli *dynamodb.Client) *DynamoDBStore {
	return &DynamoDBStore{table: table, cli: cli}
}

func (s *DynamoDBStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.cli.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, apperror.NewStorageError("get", key, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperror.NewStorageError("get", key, err)
	}
	if item.Content == nil {
		return []byte{}, nil
	}
	return item.Content, nil
}

func (s *DynamoDBStore) Put(ctx context.Context, key string, data []byte) error {
	av, err := attributevalue.MarshalMap(dynamoItem{
		Key:       key,
		Content:   data,
		UpdatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return apperror.NewStorageError("put", key, err)
	}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return apperror.NewStorageError("put", key, err)
	}
	return nil
}

func (s *DynamoDBStore) Delete(ctx context.Context, key string) (bool, error) {
	out, err := s.cli.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.table),
		Key:          itemKey(key),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, apperror.NewStorageError("delete", key, err)
	}
	return len(out.Attributes) > 0, nil
}

func (s *DynamoDBStore) Name() string { return "dynamodb" }

func (s *DynamoDBStore) Persistent() bool { return true }

func itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"key": &types.AttributeValueMemberS{Value: key},
	}
}
