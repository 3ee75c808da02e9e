// Package store persists client session state (bearer token, serialized
// profile) under fixed keys. Every backend reports a missing key as
// sentinel.ErrNotFound and treats Delete of a missing key as success.
package store

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Store

import "context"

// Durable keys.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store is a string key/value store for durable session state.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
