// Package storage defines the generic named-collection contract the core
// opens named collections through: a Collection is a flat byte-value
// key/value space, opened by name. It backs the extensions-enabled map, the
// per-extension meta collections, and the credential store.
//
// Concrete storage engines remain an external collaborator; this
// package only fixes the shape of the contract plus a couple of reference
// adapters (Redis, Postgres, and an in-memory one for tests) so the rest of
// the core has something real to run against.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Collection is a single named key/value space.
type Collection interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Opener opens (and implicitly creates, if the backend needs that) a named
// collection. Both the Redis and Postgres adapters, and the in-memory one,
// implement Opener.
type Opener interface {
	Collection(ctx context.Context, name string) (Collection, error)
	Close() error
}
