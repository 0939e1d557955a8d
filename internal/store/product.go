package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modessa/modessa/internal/domain"
)

// ListProductsParams filters and paginates the catalog.
type ListProductsParams struct {
	Category domain.GarmentCategory // Empty means all categories
	Limit    int64
	Offset   int64
}

// InsertProduct stores a new product document.
func (s *Store) InsertProduct(ctx context.Context, p *domain.Product) error {
	_, err := s.db.Collection(collProducts).InsertOne(ctx, p)
	return err
}

// GetProduct fetches a product by id. Returns mongo.ErrNoDocuments when
// absent.
func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.Collection(collProducts).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns a page of products, newest first.
func (s *Store) ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, error) {
	filter := bson.M{}
	if params.Category != "" {
		filter["category"] = params.Category
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(params.Offset)
	if params.Limit > 0 {
		opts.SetLimit(params.Limit)
	}

	cursor, err := s.db.Collection(collProducts).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []domain.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateProduct replaces the mutable fields of a product document.
func (s *Store) UpdateProduct(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now()
	result, err := s.db.Collection(collProducts).UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{
			"name":         p.Name,
			"description":  p.Description,
			"price_cents":  p.PriceCents,
			"category":     p.Category,
			"image_url":    p.ImageURL,
			"gallery_urls": p.GalleryURLs,
			"sizes":        p.Sizes,
			"in_stock":     p.InStock,
			"updated_at":   p.UpdatedAt,
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteProduct removes a product document.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.Collection(collProducts).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
