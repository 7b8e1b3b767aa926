package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tkarrer/deckhand/pkg/observability"
)

// MongoStore is a MongoDB-backed store for durable deployments.
// Each key is one document: {_id: key, value: value}.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// mongoDocument is the document shape for stored entries.
type mongoDocument struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// NewMongoStore creates a MongoDB-backed store. The connection is verified
// with a ping before the store is returned.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if collection == "" {
		collection = "state"
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Get retrieves the value stored under key.
func (s *MongoStore) Get(ctx context.Context, key string) (string, error) {
	var doc mongoDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		observability.Store().OnGet(ctx, "mongo", false)
		return "", ErrNotFound
	}
	if err != nil {
		observability.Store().OnError(ctx, "mongo", "get", err)
		return "", fmt.Errorf("mongo find: %w", err)
	}
	observability.Store().OnGet(ctx, "mongo", true)
	return doc.Value, nil
}

// Set stores value under key via upsert.
func (s *MongoStore) Set(ctx context.Context, key, value string) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": key},
		mongoDocument{Key: key, Value: value},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		observability.Store().OnError(ctx, "mongo", "set", err)
		return fmt.Errorf("mongo upsert: %w", err)
	}
	observability.Store().OnSet(ctx, "mongo", len(value))
	return nil
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		observability.Store().OnError(ctx, "mongo", "delete", err)
		return fmt.Errorf("mongo delete: %w", err)
	}
	observability.Store().OnDelete(ctx, "mongo")
	return nil
}

// Close disconnects the underlying Mongo client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
