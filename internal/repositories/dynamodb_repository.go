package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cellar/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the repository uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoRepository stores items in a DynamoDB table. Attribute names follow
// the items' json tags.
type DynamoRepository[K any, T any] struct {
	client  DynamoAPI
	table   string
	keyAttr func(K) map[string]types.AttributeValue
}

// NewDynamoRepository creates a repository over table.
func NewDynamoRepository[K any, T any](client DynamoAPI, table string, keyAttr func(K) map[string]types.AttributeValue) *DynamoRepository[K, T] {
	return &DynamoRepository[K, T]{
		client:  client,
		table:   table,
		keyAttr: keyAttr,
	}
}

// NewDynamoBeverageRepository uses id as hash key and location as range key.
func NewDynamoBeverageRepository(client DynamoAPI, table string) *DynamoRepository[models.RecordKey, models.BeverageRecord] {
	return NewDynamoRepository[models.RecordKey, models.BeverageRecord](client, table, func(k models.RecordKey) map[string]types.AttributeValue {
		return map[string]types.AttributeValue{
			models.FieldID:       &types.AttributeValueMemberS{Value: k.ID},
			models.FieldLocation: &types.AttributeValueMemberS{Value: k.Location},
		}
	})
}

// NewDynamoPicklistRepository uses listName as hash key.
func NewDynamoPicklistRepository(client DynamoAPI, table string) *DynamoRepository[string, models.Picklist] {
	return NewDynamoRepository[string, models.Picklist](client, table, func(name string) map[string]types.AttributeValue {
		return map[string]types.AttributeValue{
			"listName": &types.AttributeValueMemberS{Value: name},
		}
	})
}

func jsonTags(o *attributevalue.EncoderOptions) { o.TagKey = "json" }

func jsonTagsDecode(o *attributevalue.DecoderOptions) { o.TagKey = "json" }

// Get reads one item with a consistent read.
func (r *DynamoRepository[K, T]) Get(ctx context.Context, key K) (*T, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            r.keyAttr(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storeErr("get", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var item T
	if err := attributevalue.UnmarshalMapWithOptions(out.Item, &item, jsonTagsDecode); err != nil {
		return nil, storeErr("get", fmt.Errorf("unmarshal item: %w", err))
	}
	return &item, nil
}

// Scan pages through the whole table.
func (r *DynamoRepository[K, T]) Scan(ctx context.Context) ([]T, error) {
	var items []T
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.table)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, storeErr("scan", err)
		}
		for _, av := range page.Items {
			var item T
			if err := attributevalue.UnmarshalMapWithOptions(av, &item, jsonTagsDecode); err != nil {
				return nil, storeErr("scan", fmt.Errorf("unmarshal item: %w", err))
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// Put writes item, replacing any item with the same key.
func (r *DynamoRepository[K, T]) Put(ctx context.Context, item *T) error {
	av, err := attributevalue.MarshalMapWithOptions(item, jsonTags)
	if err != nil {
		return storeErr("put", fmt.Errorf("marshal item: %w", err))
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      av,
	}); err != nil {
		return storeErr("put", err)
	}
	return nil
}

// Delete removes the item with key, reporting ErrNotFound when nothing
// was there.
func (r *DynamoRepository[K, T]) Delete(ctx context.Context, key K) error {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.table),
		Key:          r.keyAttr(key),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return storeErr("delete", err)
	}
	if len(out.Attributes) == 0 {
		return ErrNotFound
	}
	return nil
}

// TableAPI is the subset of the DynamoDB client needed to provision tables.
type TableAPI interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// EnsureDynamoTables creates the cellar and picklist tables when missing
// and waits until both are active.
func EnsureDynamoTables(ctx context.Context, client TableAPI, cellarTable, picklistTable string) error {
	tables := []*dynamodb.CreateTableInput{
		{
			TableName: aws.String(cellarTable),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(models.FieldID), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String(models.FieldLocation), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(models.FieldID), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(models.FieldLocation), KeyType: types.KeyTypeRange},
			},
			BillingMode: types.BillingModePayPerRequest,
		},
		{
			TableName: aws.String(picklistTable),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("listName"), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("listName"), KeyType: types.KeyTypeHash},
			},
			BillingMode: types.BillingModePayPerRequest,
		},
	}

	for _, in := range tables {
		_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: in.TableName})
		if err == nil {
			continue
		}
		var nf *types.ResourceNotFoundException
		if !errors.As(err, &nf) {
			return fmt.Errorf("describe table %s: %w", aws.ToString(in.TableName), err)
		}
		if _, err := client.CreateTable(ctx, in); err != nil {
			return fmt.Errorf("create table %s: %w", aws.ToString(in.TableName), err)
		}
		waiter := dynamodb.NewTableExistsWaiter(client)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: in.TableName}, 2*time.Minute); err != nil {
			return fmt.Errorf("wait for table %s: %w", aws.ToString(in.TableName), err)
		}
	}
	return nil
}
