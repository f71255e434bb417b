package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/raushankrgupta/fitly-api/models"
)

// ConnectMongo opens and pings a MongoDB connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// NewMongoBackend stores each table as a collection of database dbName.
func NewMongoBackend(client *mongo.Client, dbName string, s Schemas) *Backend {
	db := client.Database(dbName)
	profiles := NewMongoTable[models.UserProfile](db.Collection(s.Profiles.Name), s.Profiles)
	cart := NewMongoTable[models.CartItem](db.Collection(s.CartItems.Name), s.CartItems)
	fits := NewMongoTable[models.FitJob](db.Collection(s.Fits.Name), s.Fits)
	return &Backend{
		Profiles:  profiles,
		CartItems: cart,
		Fits:      fits,
		ensure: func(ctx context.Context) error {
			for _, ensure := range []func(context.Context) error{profiles.EnsureIndexes, cart.EnsureIndexes, fits.EnsureIndexes} {
				if err := ensure(ctx); err != nil {
					return err
				}
			}
			return nil
		},
		close: client.Disconnect,
	}
}

// MongoTable implements Table on a MongoDB collection. Key attributes are
// ordinary document fields guarded by a unique index.
type MongoTable[T any] struct {
	coll   *mongo.Collection
	schema Schema
}

// NewMongoTable wraps coll for the table described by schema.
func NewMongoTable[T any](coll *mongo.Collection, schema Schema) *MongoTable[T] {
	return &MongoTable[T]{coll: coll, schema: schema}
}

func (m *MongoTable[T]) fail(op string, err error) error {
	return &Error{Table: m.schema.Name, Op: op, Err: err}
}

func (m *MongoTable[T]) filter(key Key) bson.D {
	f := bson.D{}
	for _, a := range m.schema.keyAttrs() {
		f = append(f, bson.E{Key: a, Value: key[a]})
	}
	return f
}

// Get implements Table.
func (m *MongoTable[T]) Get(ctx context.Context, key Key) (*T, error) {
	if err := m.schema.checkKey(key); err != nil {
		return nil, m.fail("get", err)
	}
	var rec T
	err := m.coll.FindOne(ctx, m.filter(key)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, m.fail("get", err)
	}
	return &rec, nil
}

// Put implements Table.
func (m *MongoTable[T]) Put(ctx context.Context, rec *T) error {
	raw, err := bson.Marshal(rec)
	if err != nil {
		return m.fail("put", err)
	}
	key := Key{}
	for _, a := range m.schema.keyAttrs() {
		if s, ok := bson.Raw(raw).Lookup(a).StringValueOK(); ok {
			key[a] = s
		}
	}
	if err := m.schema.checkKey(key); err != nil {
		return m.fail("put", err)
	}
	_, err = m.coll.ReplaceOne(ctx, m.filter(key), bson.Raw(raw), options.Replace().SetUpsert(true))
	if err != nil {
		return m.fail("put", err)
	}
	return nil
}

// Update implements Table using $set and $setOnInsert on an upsert.
func (m *MongoTable[T]) Update(ctx context.Context, key Key, set Fields, setOnInsert Fields) error {
	if err := m.schema.checkKey(key); err != nil {
		return m.fail("update", err)
	}
	update := bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: bson.M(set)})
	}
	if len(setOnInsert) > 0 {
		onInsert := bson.M{}
		for k, v := range setOnInsert {
			if _, clash := set[k]; !clash {
				onInsert[k] = v
			}
		}
		update = append(update, bson.E{Key: "$setOnInsert", Value: onInsert})
	}
	_, err := m.coll.UpdateOne(ctx, m.filter(key), update, options.Update().SetUpsert(true))
	if err != nil {
		return m.fail("update", err)
	}
	return nil
}

// Query implements Table. Pages are keyset-paginated on the sort attribute
// followed by the table key, so cursors stay stable under inserts elsewhere.
func (m *MongoTable[T]) Query(ctx context.Context, q Query) (Page[T], error) {
	pk, sk, err := m.schema.queryKeys(q.Index)
	if err != nil {
		return Page[T]{}, m.fail("query", err)
	}
	order := m.schema.orderAttrs(q.Index)
	cursorAttrs := m.schema.cursorAttrs(q.Index)

	dir, op := 1, "$gt"
	if q.Descending {
		dir, op = -1, "$lt"
	}

	filter := bson.D{{Key: pk, Value: q.Partition}}
	if sk != "" {
		filter = append(filter, bson.E{Key: sk, Value: bson.M{"$exists": true}})
	}
	if q.Cursor != "" {
		last, err := DecodeCursor(q.Cursor, cursorAttrs, pk, q.Partition)
		if err != nil {
			return Page[T]{}, err
		}
		filter = append(filter, bson.E{Key: "$or", Value: seekAfter(order, last, op)})
	}

	sortDoc := bson.D{}
	for _, a := range order {
		sortDoc = append(sortDoc, bson.E{Key: a, Value: dir})
	}
	opts := options.Find().SetSort(sortDoc)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit) + 1)
	}

	cur, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return Page[T]{}, m.fail("query", err)
	}
	defer cur.Close(ctx)

	page := Page[T]{Items: []T{}}
	var lastDoc bson.Raw
	for cur.Next(ctx) {
		if q.Limit > 0 && len(page.Items) == int(q.Limit) {
			last := make(map[string]any, len(cursorAttrs))
			for _, a := range cursorAttrs {
				last[a] = lastDoc.Lookup(a).StringValue()
			}
			if page.NextCursor, err = EncodeCursor(last); err != nil {
				return Page[T]{}, m.fail("query", err)
			}
			break
		}
		var rec T
		if err := cur.Decode(&rec); err != nil {
			return Page[T]{}, m.fail("query", err)
		}
		page.Items = append(page.Items, rec)
		lastDoc = append(bson.Raw(nil), cur.Current...)
	}
	if err := cur.Err(); err != nil {
		return Page[T]{}, m.fail("query", err)
	}
	return page, nil
}

// seekAfter builds the lexicographic "strictly after last" condition over
// the ordering attributes.
func seekAfter(order []string, last map[string]any, op string) bson.A {
	conds := bson.A{}
	for i, a := range order {
		cond := bson.D{}
		for _, prev := range order[:i] {
			cond = append(cond, bson.E{Key: prev, Value: last[prev]})
		}
		cond = append(cond, bson.E{Key: a, Value: bson.M{op: last[a]}})
		conds = append(conds, cond)
	}
	return conds
}

// EnsureIndexes creates the unique key index and one index per secondary
// index. Re-creating an identical index is a no-op in MongoDB.
func (m *MongoTable[T]) EnsureIndexes(ctx context.Context) error {
	keys := bson.D{}
	for _, a := range m.schema.keyAttrs() {
		keys = append(keys, bson.E{Key: a, Value: 1})
	}
	indexes := []mongo.IndexModel{{Keys: keys, Options: options.Index().SetUnique(true)}}
	for name, idx := range m.schema.Indexes {
		ik := bson.D{{Key: idx.PartitionKey, Value: 1}}
		if idx.SortKey != "" {
			ik = append(ik, bson.E{Key: idx.SortKey, Value: -1})
		}
		indexes = append(indexes, mongo.IndexModel{Keys: ik, Options: options.Index().SetName(name)})
	}
	if _, err := m.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return m.fail("create indexes", err)
	}
	return nil
}
