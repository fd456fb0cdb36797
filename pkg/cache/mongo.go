package cache

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCache stores each entry as a document {_id, data, updated_at} in one
// collection. Catalogs and icons use separate collections of the same
// database.
type MongoCache struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

type mongoEntry struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoCache connects to uri and uses database.collection for storage.
func NewMongoCache(ctx context.Context, uri, database, collection string) (*MongoCache, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoCache{
		client: client,
		coll:   client.Database(database).Collection(collection),
		owned:  true,
	}, nil
}

// WithCollection returns a cache sharing the same client that stores its
// entries in another collection of the same database. Close on the
// returned cache leaves the client connected.
func (c *MongoCache) WithCollection(collection string) *MongoCache {
	return &MongoCache{
		client: c.client,
		coll:   c.coll.Database().Collection(collection),
	}
}

// Get loads the document stored under key.
func (c *MongoCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	if err := checkKey(key); err != nil {
		return Entry{}, false, err
	}
	var doc mongoEntry
	err := c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, mongoErr(err)
	}
	return Entry{Data: doc.Data, ModTime: doc.UpdatedAt}, true, nil
}

// ModTime loads only the updated_at field of key.
func (c *MongoCache) ModTime(ctx context.Context, key string) (time.Time, bool, error) {
	if err := checkKey(key); err != nil {
		return time.Time{}, false, err
	}
	var doc mongoEntry
	opts := options.FindOne().SetProjection(bson.M{"updated_at": 1})
	err := c.coll.FindOne(ctx, bson.M{"_id": key}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, mongoErr(err)
	}
	return doc.UpdatedAt, true, nil
}

// Set upserts the document for key.
func (c *MongoCache) Set(ctx context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	doc := mongoEntry{Key: key, Data: data, UpdatedAt: time.Now().UTC()}
	_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return mongoErr(err)
}

// Delete removes the document for key.
func (c *MongoCache) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	_, err := c.coll.DeleteOne(ctx, bson.M{"_id": key})
	return mongoErr(err)
}

// Clear removes every document in the collection.
func (c *MongoCache) Clear(ctx context.Context) (int, error) {
	res, err := c.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, mongoErr(err)
	}
	return int(res.DeletedCount), nil
}

// Close disconnects the client if this cache created it.
func (c *MongoCache) Close() error {
	if !c.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// mongoErr maps the driver's disconnected error to ErrClosed.
func mongoErr(err error) error {
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return ErrClosed
	}
	return err
}

// Ensure MongoCache implements Cache.
var _ Cache = (*MongoCache)(nil)
