package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modessa/modessa/internal/domain"
)

// InsertReview stores a new review document.
func (s *Store) InsertReview(ctx context.Context, r *domain.Review) error {
	_, err := s.db.Collection(collReviews).InsertOne(ctx, r)
	return err
}

// ListReviewsByProduct returns a product's reviews, newest first.
func (s *Store) ListReviewsByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(collReviews).Find(ctx, bson.M{"product_id": productID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []domain.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// DeleteReview removes a review. The subject guard keeps callers from
// deleting reviews they did not write.
func (s *Store) DeleteReview(ctx context.Context, id, subject string) error {
	result, err := s.db.Collection(collReviews).DeleteOne(ctx, bson.M{"_id": id, "subject": subject})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
