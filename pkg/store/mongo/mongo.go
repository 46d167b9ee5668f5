// Package mongo stores gardens in a MongoDB collection.
package mongo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/bedplan/pkg/errors"
	gardenio "github.com/matzehuels/bedplan/pkg/io"
	"github.com/matzehuels/bedplan/pkg/store"
)

// Config holds connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Store implements store.Store on MongoDB.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// record is the stored form. Note keys contain dots, which MongoDB does
// not allow in field names, so notes are kept as a list.
type record struct {
	ID        string            `bson:"_id"`
	CreatedAt time.Time         `bson:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at"`
	Garden    gardenio.Document `bson:"garden"`
	Notes     []note            `bson:"notes,omitempty"`
}

type note struct {
	Bed  int    `bson:"bed"`
	Cell int    `bson:"cell"`
	Text string `bson:"text"`
}

// Open connects to MongoDB and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	return New(client, cfg.Database, cfg.Collection), nil
}

// New wraps an existing client.
func New(client *mongo.Client, database, collection string) *Store {
	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collection),
		now:    time.Now,
	}
}

// timestamp returns the current time at the precision MongoDB stores.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, doc gardenio.Document) (*store.Record, error) {
	if err := store.CheckDocument(doc); err != nil {
		return nil, err
	}
	now := s.timestamp()
	rec := &store.Record{ID: store.NewID(), CreatedAt: now, UpdatedAt: now, Garden: doc}
	r, err := toRecord(rec)
	if err != nil {
		return nil, err
	}
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "insert garden")
	}
	return rec, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, id string) (*store.Record, error) {
	if err := errors.ValidateGardenID(id); err != nil {
		return nil, err
	}
	var r record
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.NotFound(id)
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "find garden %s", id)
	}
	return fromRecord(r), nil
}

// Update implements store.Store.
func (s *Store) Update(ctx context.Context, id string, doc gardenio.Document) (*store.Record, error) {
	if err := errors.ValidateGardenID(id); err != nil {
		return nil, err
	}
	if err := store.CheckDocument(doc); err != nil {
		return nil, err
	}
	upd, err := toRecord(&store.Record{ID: id, Garden: doc})
	if err != nil {
		return nil, err
	}
	set := bson.M{
		"garden":     upd.Garden,
		"notes":      upd.Notes,
		"updated_at": s.timestamp(),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r record
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&r); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.NotFound(id)
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "update garden %s", id)
	}
	return fromRecord(r), nil
}

// List implements store.Store.
func (s *Store) List(ctx context.Context) ([]*store.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list gardens")
	}
	var rs []record
	if err := cur.All(ctx, &rs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read gardens")
	}
	out := make([]*store.Record, len(rs))
	for i, r := range rs {
		out[i] = fromRecord(r)
	}
	return out, nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateGardenID(id); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "delete garden %s", id)
	}
	if res.DeletedCount == 0 {
		return store.NotFound(id)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toRecord(rec *store.Record) (record, error) {
	r := record{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Garden:    rec.Garden,
	}
	keys := make([]string, 0, len(rec.Garden.Notes))
	for k := range rec.Garden.Notes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		bed, cell, err := gardenio.ParseNoteKey(k)
		if err != nil {
			return record{}, err
		}
		r.Notes = append(r.Notes, note{Bed: bed, Cell: cell, Text: rec.Garden.Notes[k]})
	}
	r.Garden.Notes = nil
	return r, nil
}

func fromRecord(r record) *store.Record {
	rec := &store.Record{
		ID:        r.ID,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		Garden:    r.Garden,
	}
	if len(r.Notes) > 0 {
		rec.Garden.Notes = make(map[string]string, len(r.Notes))
		for _, n := range r.Notes {
			rec.Garden.Notes[gardenio.NoteKey(n.Bed, n.Cell)] = n.Text
		}
	}
	return rec
}

var _ store.Store = (*Store)(nil)

// String describes the store for logs.
func (s *Store) String() string {
	return fmt.Sprintf("mongo:%s.%s", s.coll.Database().Name(), s.coll.Name())
}
