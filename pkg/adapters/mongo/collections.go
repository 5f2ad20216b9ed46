package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/blocks/pkg/catalog"
	"github.com/aretw0/blocks/pkg/domain"
	"go.mongodb.org/mongo-driver/bson"
	backend "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fieldDoc struct {
	Key       string         `bson:"key"`
	Name      string         `bson:"name"`
	Interface string         `bson:"interface"`
	Title     string         `bson:"title,omitempty"`
	UISchema  map[string]any `bson:"ui_schema,omitempty"`
}

type collectionDoc struct {
	Name   string     `bson:"_id"`
	Title  string     `bson:"title,omitempty"`
	Fields []fieldDoc `bson:"fields"`
}

// Collections implements ports.CollectionService on a MongoDB collection.
type Collections struct {
	coll    *backend.Collection
	catalog *catalog.Catalog
	newKey  domain.KeyGenerator
}

// NewCollections creates the service on the "collections" collection of db.
func NewCollections(client *backend.Client, db string, cat *catalog.Catalog) *Collections {
	if cat == nil {
		cat = catalog.MustDefault()
	}
	return &Collections{
		coll:    client.Database(db).Collection("collections"),
		catalog: cat,
		newKey:  domain.NewKey,
	}
}

// CreateOrUpdateCollection upserts the title and appends any new fields.
func (s *Collections) CreateOrUpdateCollection(ctx context.Context, def map[string]any) (domain.Collection, error) {
	c, err := s.catalog.NewCollection(def, s.newKey)
	if err != nil {
		return domain.Collection{}, err
	}

	fields := make([]fieldDoc, len(c.Fields))
	for i, f := range c.Fields {
		fields[i] = toFieldDoc(f)
	}
	update := bson.M{
		"$set":  bson.M{"title": c.Title},
		"$push": bson.M{"fields": bson.M{"$each": fields}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc collectionDoc
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": c.Name}, update, opts).Decode(&doc); err != nil {
		return domain.Collection{}, fmt.Errorf("failed to save collection: %w", err)
	}
	return fromCollectionDoc(doc), nil
}

// CreateCollectionField appends a field to an existing collection.
func (s *Collections) CreateCollectionField(ctx context.Context, collectionName string, def map[string]any) (domain.Field, error) {
	f, err := s.catalog.NewField(def, s.newKey)
	if err != nil {
		return domain.Field{}, err
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": collectionName}, bson.M{"$push": bson.M{"fields": toFieldDoc(f)}})
	if err != nil {
		return domain.Field{}, fmt.Errorf("failed to add field: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.Field{}, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, collectionName)
	}
	return f, nil
}

// ListCollections returns every collection ordered by name.
func (s *Collections) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	var docs []collectionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read collections: %w", err)
	}
	out := make([]domain.Collection, len(docs))
	for i, d := range docs {
		out[i] = fromCollectionDoc(d)
	}
	return out, nil
}

// GetCollection returns the named collection.
func (s *Collections) GetCollection(ctx context.Context, name string) (domain.Collection, error) {
	var doc collectionDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc); err != nil {
		if errors.Is(err, backend.ErrNoDocuments) {
			return domain.Collection{}, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
		}
		return domain.Collection{}, fmt.Errorf("failed to load collection: %w", err)
	}
	return fromCollectionDoc(doc), nil
}

func toFieldDoc(f domain.Field) fieldDoc {
	return fieldDoc{
		Key:       f.Key,
		Name:      f.Name,
		Interface: f.Interface,
		Title:     f.Title,
		UISchema:  f.UISchema,
	}
}

func fromCollectionDoc(d collectionDoc) domain.Collection {
	c := domain.Collection{Name: d.Name, Title: d.Title}
	for _, f := range d.Fields {
		c.Fields = append(c.Fields, domain.Field{
			Key:       f.Key,
			Name:      f.Name,
			Interface: f.Interface,
			Title:     f.Title,
			UISchema:  normalize(f.UISchema),
		})
	}
	return c
}

// normalize turns the bson.M and bson.A values the driver decodes nested
// documents into back into plain maps and slices.
func normalize(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return normalize(t)
	case map[string]any:
		return normalize(t)
	case bson.D:
		return normalize(t.Map())
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
