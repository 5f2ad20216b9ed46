// Package mongo stores pages and collections in MongoDB.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/blocks/pkg/domain"
	"go.mongodb.org/mongo-driver/bson"
	backend "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// pageDoc is the stored shape of a page. The tree is kept as its JSON
// encoding so child order survives BSON's map handling.
type pageDoc struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title,omitempty"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updated_at"`
	Schema    string    `bson:"schema"`
}

// Store implements ports.PageStore on a MongoDB collection.
type Store struct {
	pages *backend.Collection
}

// Connect dials uri and returns a client for New and NewCollections.
func Connect(ctx context.Context, uri string) (*backend.Client, error) {
	client, err := backend.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

// New creates a store on the "pages" collection of database db.
func New(client *backend.Client, db string) *Store {
	return &Store{pages: client.Database(db).Collection("pages")}
}

// Save upserts the page.
func (s *Store) Save(ctx context.Context, page *domain.Page) error {
	tree, err := json.Marshal(page.Root)
	if err != nil {
		return fmt.Errorf("failed to marshal page tree: %w", err)
	}
	doc := pageDoc{
		ID:        page.ID,
		Title:     page.Title,
		Version:   page.Version,
		UpdatedAt: page.UpdatedAt,
		Schema:    string(tree),
	}
	_, err = s.pages.ReplaceOne(ctx, bson.M{"_id": page.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save page to mongo: %w", err)
	}
	return nil
}

// Load retrieves the page.
func (s *Store) Load(ctx context.Context, pageID string) (*domain.Page, error) {
	var doc pageDoc
	err := s.pages.FindOne(ctx, bson.M{"_id": pageID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, backend.ErrNoDocuments) {
			return nil, domain.ErrPageNotFound
		}
		return nil, fmt.Errorf("failed to load page from mongo: %w", err)
	}

	page := &domain.Page{
		ID:        doc.ID,
		Title:     doc.Title,
		Version:   doc.Version,
		UpdatedAt: doc.UpdatedAt,
	}
	var root domain.Node
	if err := json.Unmarshal([]byte(doc.Schema), &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page tree: %w", err)
	}
	page.Root = &root
	return page, nil
}

// Delete removes the page.
func (s *Store) Delete(ctx context.Context, pageID string) error {
	if _, err := s.pages.DeleteOne(ctx, bson.M{"_id": pageID}); err != nil {
		return fmt.Errorf("failed to delete page from mongo: %w", err)
	}
	return nil
}

// List returns page IDs in order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.pages.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read page list: %w", err)
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}
