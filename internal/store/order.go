package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modessa/modessa/internal/domain"
)

// InsertOrder stores a new order document.
func (s *Store) InsertOrder(ctx context.Context, o *domain.Order) error {
	_, err := s.db.Collection(collOrders).InsertOne(ctx, o)
	return err
}

// GetOrder fetches an order by id.
func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := s.db.Collection(collOrders).FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrdersBySubject returns the buyer's orders, newest first.
func (s *Store) ListOrdersBySubject(ctx context.Context, subject string) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(collOrders).Find(ctx, bson.M{"subject": subject}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []domain.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus advances an order through fulfilment.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	result, err := s.db.Collection(collOrders).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// HasCompletedOrder reports whether the subject has at least one
// delivered order. This is what promotes an identity to the purchaser
// tier.
func (s *Store) HasCompletedOrder(ctx context.Context, subject string) (bool, error) {
	count, err := s.db.Collection(collOrders).CountDocuments(ctx, bson.M{
		"subject": subject,
		"status":  domain.OrderStatusDelivered,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
