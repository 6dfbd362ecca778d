package repositories_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"cellar/internal/repositories"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo is an in-memory stand-in for one DynamoDB table. Scan pages
// two items at a time so pagination is exercised.
type fakeDynamo struct {
	mu       sync.Mutex
	keyNames []string
	items    map[string]map[string]types.AttributeValue
	scans    int
}

func newFakeDynamo(keyNames ...string) *fakeDynamo {
	return &fakeDynamo{keyNames: keyNames, items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) keyOf(av map[string]types.AttributeValue) string {
	parts := make([]string, 0, len(f.keyNames))
	for _, n := range f.keyNames {
		s, _ := av[n].(*types.AttributeValueMemberS)
		if s == nil {
			return ""
		}
		parts = append(parts, s.Value)
	}
	return strings.Join(parts, "\x1f")
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[f.keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.keyOf(in.Item)
	if k == "" {
		return nil, errors.New("ValidationException: missing key attribute")
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.keyOf(in.Key)
	old := f.items[k]
	delete(f.items, k)
	return &dynamodb.DeleteItemOutput{Attributes: old}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if len(in.ExclusiveStartKey) > 0 {
		after := f.keyOf(in.ExclusiveStartKey)
		start = sort.SearchStrings(keys, after) + 1
	}
	end := min(start+2, len(keys))

	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, f.items[k])
	}
	if end < len(keys) {
		last := f.items[keys[end-1]]
		out.LastEvaluatedKey = make(map[string]types.AttributeValue, len(f.keyNames))
		for _, n := range f.keyNames {
			out.LastEvaluatedKey[n] = last[n]
		}
	}
	return out, nil
}

func TestDynamoRepository(t *testing.T) {
	records := newFakeDynamo("id", "location")
	runBeverageContract(t, repositories.NewDynamoBeverageRepository(records, "Cellar"))
	assert.Greater(t, records.scans, 2)

	runPicklistContract(t, repositories.NewDynamoPicklistRepository(newFakeDynamo("listName"), "CellarPicklists"))
}

func TestDynamoRepository_AttributeNames(t *testing.T) {
	fake := newFakeDynamo("id", "location")
	repo := repositories.NewDynamoBeverageRepository(fake, "Cellar")
	rec := sampleRecords()[2]
	require.NoError(t, repo.Put(context.Background(), &rec))

	item := fake.items[rec.Key().String()]
	require.NotNil(t, item)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "Westbrook"}, item["producer"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2013-06-24"}, item["bottleDate"])
	assert.Contains(t, item, "quantityCold")

	// Absent optionals are not written.
	rec = sampleRecords()[0]
	require.NoError(t, repo.Put(context.Background(), &rec))
	assert.NotContains(t, fake.items[rec.Key().String()], "batch")
}

type failingDynamo struct{ fakeDynamo }

func (*failingDynamo) PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return nil, errors.New("ProvisionedThroughputExceededException")
}

func TestDynamoRepository_StoreError(t *testing.T) {
	repo := repositories.NewDynamoBeverageRepository(&failingDynamo{}, "Cellar")
	rec := sampleRecords()[0]

	err := repo.Put(context.Background(), &rec)
	var storeErr *repositories.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "put", storeErr.Op)
	assert.Contains(t, err.Error(), "ProvisionedThroughputExceeded")
}

type fakeTables struct {
	existing map[string]bool
	created  []string
}

func (f *fakeTables) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	name := aws.ToString(in.TableName)
	if !f.existing[name] {
		return nil, &types.ResourceNotFoundException{Message: aws.String("no table " + name)}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeTables) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	name := aws.ToString(in.TableName)
	f.created = append(f.created, name)
	f.existing[name] = true
	return &dynamodb.CreateTableOutput{}, nil
}

func TestEnsureDynamoTables(t *testing.T) {
	tables := &fakeTables{existing: map[string]bool{"Cellar": true}}

	err := repositories.EnsureDynamoTables(context.Background(), tables, "Cellar", "CellarPicklists")
	require.NoError(t, err)
	assert.Equal(t, []string{"CellarPicklists"}, tables.created)

	require.NoError(t, repositories.EnsureDynamoTables(context.Background(), tables, "Cellar", "CellarPicklists"))
	assert.Len(t, tables.created, 1)
}
