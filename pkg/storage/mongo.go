package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/matzehuels/pagecraft/pkg/value"
)

// Default database and collection names used by MongoStore.
const (
	DefaultMongoDatabase   = "pagecraft"
	DefaultMongoCollection = "translations"
)

// MongoStore keeps one document per namespace:
//
//	{_id: "fr/hero_x", locale: "fr", namespace: "hero_x", data: "{...}"}
//
// The namespace body is stored as a JSON string so every value kind round
// trips exactly.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDoc struct {
	ID        string `bson:"_id"`
	Locale    string `bson:"locale"`
	Namespace string `bson:"namespace"`
	Data      string `bson:"data"`
}

// NewMongoStore connects to uri. Empty database or collection names fall
// back to the defaults.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

func (s *MongoStore) Read(ctx context.Context, locale, namespace string) (value.Map, error) {
	if err := validate(locale, namespace); err != nil {
		return nil, err
	}
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": key(locale, namespace)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return value.Map{}, nil
	}
	if err != nil {
		return nil, persistErr("read", locale, namespace, err)
	}
	var m value.Map
	if err := json.Unmarshal([]byte(doc.Data), &m); err != nil {
		return nil, persistErr("parse", locale, namespace, err)
	}
	if m == nil {
		m = value.Map{}
	}
	return m, nil
}

func (s *MongoStore) Write(ctx context.Context, locale, namespace string, m value.Map) error {
	if err := validate(locale, namespace); err != nil {
		return err
	}
	if m == nil {
		m = value.Map{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return persistErr("encode", locale, namespace, err)
	}
	doc := mongoDoc{ID: key(locale, namespace), Locale: locale, Namespace: namespace, Data: string(data)}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return persistErr("write", locale, namespace, err)
	}
	return nil
}

func (s *MongoStore) Namespaces(ctx context.Context, locale string) ([]string, error) {
	cur, err := s.coll.Find(ctx, bson.M{"locale": locale},
		options.Find().SetSort(bson.D{{Key: "namespace", Value: 1}}).SetProjection(bson.M{"namespace": 1}))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", locale, err)
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var doc mongoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.Namespace)
	}
	return out, cur.Err()
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
