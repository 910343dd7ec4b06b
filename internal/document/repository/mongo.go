package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/journee-docs/livedocs/backend/internal/document"
	"github.com/journee-docs/livedocs/backend/pkg/logger"
)

// metaDocID marks a collection that has been seeded once, so a collection
// emptied by deletions is never mistaken for a first run.
const metaDocID = "_meta"

// collection is the slice of *mongo.Collection the repository touches;
// tests substitute an in-memory fake.
type collection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
	InsertOne(ctx context.Context, doc interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// MongoRepo keeps the collection in a Mongo collection instead of a flat
// file. It preserves the whole-collection contract of Repository: LoadAll
// reads every record, SaveAll replaces the set wholesale and Mutate runs the
// full cycle under a process-local mutex. Running several writer replicas
// against one collection needs external coordination.
type MongoRepo struct {
	mu  sync.Mutex
	col collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	idx := mongo.IndexModel{Keys: bson.D{{Key: "roomId", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		logger.Warnf("could not ensure roomId index: %v", err)
	}
	r := &MongoRepo{col: col}
	r.ensureSeed(ctx)
	return r
}

// ensureSeed writes the sample documents exactly once per collection. The
// marker record survives SaveAll, so deleting every document leaves the
// collection empty across restarts instead of resurrecting the samples.
func (r *MongoRepo) ensureSeed(ctx context.Context) {
	err := r.col.FindOne(ctx, bson.M{"_id": metaDocID}).Err()
	if err == nil {
		return
	}
	if err != mongo.ErrNoDocuments {
		logger.Warnf("could not check seed marker: %v", err)
		return
	}

	docs := SeedDocuments()
	records := make([]interface{}, 0, len(docs))
	for _, d := range docs {
		records = append(records, d)
	}
	logger.Infof("empty documents collection, creating seed documents")
	if _, err := r.col.InsertMany(ctx, records); err != nil {
		logger.Errorf("failed to persist seed documents: %v", err)
		return
	}
	marker := bson.M{"_id": metaDocID, "roomId": metaDocID, "seededAt": time.Now().UTC()}
	if _, err := r.col.InsertOne(ctx, marker); err != nil {
		logger.Errorf("failed to write seed marker: %v", err)
	}
}

func (r *MongoRepo) LoadAll() ([]*document.Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.loadAll(ctx)
}

func (r *MongoRepo) loadAll(ctx context.Context) ([]*document.Document, error) {
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$ne": metaDocID}})
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	defer cur.Close(ctx)

	docs := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		docs = append(docs, &d)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *MongoRepo) SaveAll(docs []*document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.saveAll(ctx, docs)
}

func (r *MongoRepo) saveAll(ctx context.Context, docs []*document.Document) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$ne": metaDocID}}); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	records := make([]interface{}, 0, len(docs))
	for _, d := range docs {
		records = append(records, d)
	}
	_, err := r.col.InsertMany(ctx, records)
	return err
}

// Mutate applies fn under the repository mutex so concurrent mutations from
// this process see each other's writes. An error from fn discards the cycle.
func (r *MongoRepo) Mutate(fn func(docs []*document.Document) ([]*document.Document, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	docs, err := r.loadAll(ctx)
	if err != nil {
		return err
	}
	next, err := fn(docs)
	if err != nil {
		return err
	}
	return r.saveAll(ctx, next)
}
