package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/journee-docs/livedocs/backend/internal/document"
)

// fakeCollection implements the collection seam in memory. The seed marker
// is tracked separately, the way the real collection keeps it out of Find
// results via the filter.
type fakeCollection struct {
	docs    []*document.Document
	hasMeta bool
}

func (f *fakeCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	records := make([]interface{}, 0, len(f.docs))
	for _, d := range f.docs {
		records = append(records, d)
	}
	return mongo.NewCursorFromDocuments(records, nil, nil)
}

func (f *fakeCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	if f.hasMeta {
		return mongo.NewSingleResultFromDocument(bson.M{"_id": metaDocID}, nil, nil)
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (f *fakeCollection) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	n := int64(len(f.docs))
	f.docs = nil
	return &mongo.DeleteResult{DeletedCount: n}, nil
}

func (f *fakeCollection) InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	for _, rec := range documents {
		f.docs = append(f.docs, rec.(*document.Document))
	}
	return &mongo.InsertManyResult{}, nil
}

func (f *fakeCollection) InsertOne(ctx context.Context, doc interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	f.hasMeta = true
	return &mongo.InsertOneResult{}, nil
}

func newFakeMongoRepo(fake *fakeCollection) *MongoRepo {
	r := &MongoRepo{col: fake}
	r.ensureSeed(context.Background())
	return r
}

func TestMongoRepoSeedsOnFirstRun(t *testing.T) {
	fake := &fakeCollection{}
	repo := newFakeMongoRepo(fake)

	docs, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc_welcome_sample", docs[0].ID)
	assert.True(t, fake.hasMeta)
}

func TestMongoRepoEmptiedCollectionStaysEmpty(t *testing.T) {
	fake := &fakeCollection{}
	repo := newFakeMongoRepo(fake)

	// the user deletes every document
	require.NoError(t, repo.SaveAll([]*document.Document{}))

	docs, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, docs, "deleted documents must not come back")

	// a restart over the same collection must not resurrect the samples
	restarted := newFakeMongoRepo(fake)
	docs, err = restarted.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMongoRepoSeedsOnlyOnce(t *testing.T) {
	fake := &fakeCollection{}
	repo := newFakeMongoRepo(fake)
	repo.ensureSeed(context.Background())

	docs, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestMongoRepoMutate(t *testing.T) {
	fake := &fakeCollection{}
	repo := newFakeMongoRepo(fake)

	err := repo.Mutate(func(docs []*document.Document) ([]*document.Document, error) {
		return append(docs, &document.Document{ID: "doc_x", RoomID: "room_x", CreatedBy: "alice"}), nil
	})
	require.NoError(t, err)

	docs, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestMongoRepoMutateErrorDiscardsCycle(t *testing.T) {
	fake := &fakeCollection{}
	repo := newFakeMongoRepo(fake)

	err := repo.Mutate(func(docs []*document.Document) ([]*document.Document, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	docs, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}
