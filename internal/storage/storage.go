// Package storage holds the durable per-visitor key/value storage the cart
// and session state are persisted to.
package storage

import "context"

// Storage maps string keys to string values for a single visitor.
// A missing key is reported with ok == false and a nil error.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Scoper hands out the Storage belonging to one visitor.
type Scoper interface {
	Scope(visitorID string) Storage
	Ping(ctx context.Context) error
}
