package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoCollection is the collection used when none is configured.
const DefaultMongoCollection = "cache"

// MongoStore keeps one document per key. A TTL index on expires_at lets the
// server reap expired documents; reads also check expiry since the reaper
// runs only once a minute.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

type mongoDoc struct {
	Key       string     `bson:"_id"`
	Value     string     `bson:"value"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// NewMongoStore connects to uri and prepares the collection's TTL index.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	s := &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
		now:    time.Now,
	}
	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create ttl index: %w", err)
	}
	return s, nil
}

func (s *MongoStore) find(ctx context.Context, key string) (*mongoDoc, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	if doc.ExpiresAt != nil && !s.now().Before(*doc.ExpiresAt) {
		return nil, ErrCacheMiss
	}
	return &doc, nil
}

// Get returns the stored document.
func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	doc, err := s.find(ctx, key)
	if err != nil {
		return nil, err
	}
	return []byte(doc.Value), nil
}

// Set upserts the document for key.
func (s *MongoStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	doc := mongoDoc{Key: key, Value: string(data)}
	if ttl > 0 {
		exp := s.now().Add(ttl)
		doc.ExpiresAt = &exp
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

// TTL returns the remaining lifetime of key.
func (s *MongoStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	doc, err := s.find(ctx, key)
	if err != nil {
		return 0, err
	}
	if doc.ExpiresAt == nil {
		return NoExpiry, nil
	}
	return doc.ExpiresAt.Sub(s.now()), nil
}

// Delete removes key.
func (s *MongoStore) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// Exists reports whether a live document exists for key.
func (s *MongoStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.find(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	return err == nil, err
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
