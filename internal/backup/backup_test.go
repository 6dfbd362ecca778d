package backup_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"cellar/internal/backup"
	"cellar/internal/models"
	"cellar/internal/repositories"
	"cellar/internal/services"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 keeps objects of a single bucket in memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newEnv(t *testing.T) (*repositories.Repositories, *services.CellarService) {
	t.Helper()
	repos, err := repositories.Open(context.Background(), repositories.Options{Driver: repositories.DriverMemory})
	require.NoError(t, err)
	return repos, services.NewCellarService(repos.Beverages, services.WithLogger(quiet))
}

func TestBackupAndRestore(t *testing.T) {
	ctx := context.Background()
	store := newFakeS3()

	src, cellar := newEnv(t)
	added := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	modified := time.Date(2020, 3, 31, 8, 30, 0, 0, time.UTC)
	_, err := cellar.ImportRecords(ctx, []map[string]any{{
		"producer": "Westbrook", "name": "Gose", "year": 2013, "size": "12 oz",
		"location": "Fridge", "bottleDate": "2013-06-24", "quantity": 0, "forTrade": false,
		"dateAdded": added.UnixMilli(), "lastModified": modified.UnixMilli(),
	}}, services.ImportOptions{})
	require.NoError(t, err)
	style := models.Picklist{ListName: "style", Values: []models.PicklistEntry{{Value: "Sour", DependentValues: []string{"Gose"}}}, LastModified: modified}
	require.NoError(t, src.Picklists.Put(ctx, &style))

	key, err := backup.New(store, "cellar-backups", src, cellar, quiet).Backup(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, backup.KeyPrefix))
	assert.True(t, strings.HasSuffix(key, ".json"))

	var snap backup.Snapshot
	require.NoError(t, json.Unmarshal(store.objects[key], &snap))
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "2020-03-31T08:30:00.000Z", snap.Records[0].LastModified)

	dst, dstCellar := newEnv(t)
	result, err := backup.New(store, "cellar-backups", dst, dstCellar, quiet).Restore(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, backup.RestoreResult{Key: key, Records: 1, Picklists: 1}, result)

	rec, err := dst.Beverages.Get(ctx, models.RecordKey{ID: "Westbrook_Gose_2013_12 oz_2013-06-24", Location: "Fridge"})
	require.NoError(t, err)
	assert.True(t, added.Equal(rec.DateAdded))
	assert.True(t, modified.Equal(rec.LastModified))
	assert.Equal(t, 0, rec.Quantity)
	assert.False(t, rec.ForTrade)
	require.NotNil(t, rec.BottleDate)
	assert.Nil(t, rec.Batch)

	list, err := dst.Picklists.Get(ctx, "style")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gose"}, list.Values[0].DependentValues)
	assert.True(t, modified.Equal(list.LastModified))
}

func TestRestore_NoSnapshot(t *testing.T) {
	repos, cellar := newEnv(t)
	_, err := backup.New(newFakeS3(), "b", repos, cellar, quiet).Restore(context.Background(), "")
	assert.ErrorIs(t, err, backup.ErrNoSnapshot)
}

func TestRestore_InvalidSnapshotWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := newFakeS3()
	store.objects["cellar/broken.json"] = []byte(`{
		"takenAt": "2020-03-31T00:00:00.000Z",
		"records": [
			{"producer": "Duff", "name": "Lite", "year": 1997, "size": "12 oz", "location": "Cellar"},
			{"producer": "Duff", "name": "Lite", "year": "soon", "size": "12 oz", "location": "Fridge"}
		],
		"picklists": []
	}`)

	repos, cellar := newEnv(t)
	_, err := backup.New(store, "b", repos, cellar, quiet).Restore(ctx, "cellar/broken.json")
	assert.ErrorIs(t, err, models.ErrInvalidType)
	assert.ErrorContains(t, err, "record 1")

	all, err := repos.Beverages.Scan(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLatest(t *testing.T) {
	store := newFakeS3()
	store.objects["cellar/20200101T000000.000Z.json"] = []byte(`{}`)
	store.objects["cellar/20210101T000000.000Z.json"] = []byte(`{}`)
	store.objects["other/20990101T000000.000Z.json"] = []byte(`{}`)

	repos, cellar := newEnv(t)
	key, err := backup.New(store, "b", repos, cellar, quiet).Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cellar/20210101T000000.000Z.json", key)
}
