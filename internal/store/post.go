package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modessa/modessa/internal/domain"
)

// InsertPost stores a new blog post.
func (s *Store) InsertPost(ctx context.Context, p *domain.Post) error {
	_, err := s.db.Collection(collPosts).InsertOne(ctx, p)
	return err
}

// GetPostBySlug fetches a post by its URL slug.
func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	var p domain.Post
	err := s.db.Collection(collPosts).FindOne(ctx, bson.M{"slug": slug}).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPosts returns posts, newest first. When publishedOnly is set,
// drafts are excluded.
func (s *Store) ListPosts(ctx context.Context, publishedOnly bool) ([]domain.Post, error) {
	filter := bson.M{}
	if publishedOnly {
		filter["published"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(collPosts).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []domain.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost replaces the mutable fields of a post.
func (s *Store) UpdatePost(ctx context.Context, p *domain.Post) error {
	p.UpdatedAt = time.Now()
	result, err := s.db.Collection(collPosts).UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{
			"slug":       p.Slug,
			"title":      p.Title,
			"body":       p.Body,
			"cover_url":  p.CoverURL,
			"published":  p.Published,
			"updated_at": p.UpdatedAt,
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

// DeletePost removes a post.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	result, err := s.db.Collection(collPosts).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
