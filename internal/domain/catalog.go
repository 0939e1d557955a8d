// Package domain contains core business types and interfaces.
//
// This file defines the storefront record types stored in the document
// record store. These are plain CRUD documents; no try-on logic depends on
// their internals beyond the garment image URL and default category.
package domain

import "time"

// Product is a catalog item. The garment image and category seed the
// try-on dialog when it is opened from a product page.
type Product struct {
	ID          string          `bson:"_id,omitempty" json:"id"`
	Name        string          `bson:"name" json:"name"`
	Description string          `bson:"description" json:"description"`
	PriceCents  int64           `bson:"price_cents" json:"price_cents"`
	Category    GarmentCategory `bson:"category" json:"category"`
	ImageURL    string          `bson:"image_url" json:"image_url"`
	GalleryURLs []string        `bson:"gallery_urls,omitempty" json:"gallery_urls,omitempty"`
	Sizes       []string        `bson:"sizes,omitempty" json:"sizes,omitempty"`
	InStock     bool            `bson:"in_stock" json:"in_stock"`
	CreatedAt   time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `bson:"updated_at" json:"updated_at"`
}

// OrderStatus tracks order fulfilment. Payment is cash on delivery, so
// there is no payment state.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID string `bson:"product_id" json:"product_id"`
	Name      string `bson:"name" json:"name"`
	Size      string `bson:"size,omitempty" json:"size,omitempty"`
	Quantity  int    `bson:"quantity" json:"quantity"`
	UnitCents int64  `bson:"unit_cents" json:"unit_cents"`
}

// Order is a placed cash-on-delivery order. A completed order promotes the
// buyer to the purchaser tier.
type Order struct {
	ID         string      `bson:"_id,omitempty" json:"id"`
	Subject    string      `bson:"subject" json:"subject"` // Identity provider subject of the buyer
	Email      string      `bson:"email" json:"email"`
	Name       string      `bson:"name" json:"name"`
	Phone      string      `bson:"phone" json:"phone"`
	Address    string      `bson:"address" json:"address"`
	Items      []OrderItem `bson:"items" json:"items"`
	TotalCents int64       `bson:"total_cents" json:"total_cents"`
	Status     OrderStatus `bson:"status" json:"status"`
	CreatedAt  time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `bson:"updated_at" json:"updated_at"`
}

// Review is a product review document.
type Review struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	ProductID string    `bson:"product_id" json:"product_id"`
	Subject   string    `bson:"subject" json:"subject"`
	Author    string    `bson:"author" json:"author"`
	Rating    int       `bson:"rating" json:"rating"`
	Body      string    `bson:"body" json:"body"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Post is a blog post document.
type Post struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Slug      string    `bson:"slug" json:"slug"`
	Title     string    `bson:"title" json:"title"`
	Body      string    `bson:"body" json:"body"`
	CoverURL  string    `bson:"cover_url,omitempty" json:"cover_url,omitempty"`
	Published bool      `bson:"published" json:"published"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
