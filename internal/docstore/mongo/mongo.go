// Package mongo keeps documents in a single MongoDB collection keyed by path.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arellanoelden/think-piece/internal/docstore"
)

const collectionName = "documents"

var _ docstore.Store = (*Store)(nil)

type document struct {
	Path      string         `bson:"_id"`
	Fields    map[string]any `bson:"fields"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to uri and uses the documents collection of database.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo docstore: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo docstore: ping: %w", err)
	}

	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}

	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": path}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &docstore.Snapshot{Path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo docstore: get %s: %w", path, err)
	}

	return &docstore.Snapshot{
		Path:   path,
		Exists: true,
		Fields: normalize(doc.Fields),
	}, nil
}

func (s *Store) Set(ctx context.Context, path string, fields map[string]any) error {
	if err := docstore.ValidatePath(path); err != nil {
		return err
	}

	doc := document{Path: path, Fields: docstore.CloneFields(fields), UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": path}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo docstore: set %s: %w", path, err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, path string, fields map[string]any) error {
	if err := docstore.ValidatePath(path); err != nil {
		return err
	}

	doc := document{Path: path, Fields: docstore.CloneFields(fields), UpdatedAt: time.Now().UTC()}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return docstore.ErrAlreadyExists
		}
		return fmt.Errorf("mongo docstore: create %s: %w", path, err)
	}
	return nil
}

// normalize converts driver-specific values back to plain Go types.
func normalize(fields map[string]any) map[string]any {
	if fields == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case primitive.M:
		return normalize(t)
	case map[string]any:
		return normalize(t)
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
