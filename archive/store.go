package archive

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DataStore is the subset of collection operations the archive needs.
type DataStore interface {
	InsertMany(
		ctx context.Context,
		documents []interface{},
		opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
	InsertOne(
		ctx context.Context,
		document interface{},
		opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(
		ctx context.Context,
		filter interface{},
		opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// CollectionProvider hands out collections by name.
type CollectionProvider interface {
	Collection(name string) DataStore
}

// MongoCollection adapts *mongo.Collection to DataStore.
type MongoCollection struct {
	*mongo.Collection
}

func (c *MongoCollection) InsertMany(
	ctx context.Context,
	documents []interface{},
	opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	result, err := c.Collection.InsertMany(ctx, documents, opts...)
	if err != nil {
		return nil, fmt.Errorf("insert many into %s: %w", c.Name(), err)
	}
	return result, nil
}

func (c *MongoCollection) InsertOne(
	ctx context.Context,
	document interface{},
	opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	result, err := c.Collection.InsertOne(ctx, document, opts...)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", c.Name(), err)
	}
	return result, nil
}

func (c *MongoCollection) Find(
	ctx context.Context,
	filter interface{},
	opts ...*options.FindOptions) (*mongo.Cursor, error) {
	cursor, err := c.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.Name(), err)
	}
	return cursor, nil
}

// MongoProvider adapts *mongo.Client to CollectionProvider.
type MongoProvider struct {
	client   *mongo.Client
	database string
}

// NewMongoProvider serves collections of database.
func NewMongoProvider(client *mongo.Client, database string) *MongoProvider {
	return &MongoProvider{client: client, database: database}
}

func (p *MongoProvider) Collection(name string) DataStore {
	return &MongoCollection{p.client.Database(p.database).Collection(name)}
}

// Connect opens and pings a MongoDB client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	logrus.Info("connected to MongoDB")
	return client, nil
}
