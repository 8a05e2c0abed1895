package cache

import "context"

// Resource cache keys shared by the services. Each key addresses one cached
// collection and is invalidated independently when that collection mutates.
const (
	KeyRooms         = "rooms"
	KeyDistributions = "distributions"
)

// KeyDocuments returns the cache key for one document variant's list.
func KeyDocuments(kind string) string {
	return "documents:" + kind
}

// Store is a read cache keyed by logical resource name. Implementations hold
// encoded collection snapshots; a missing entry means the caller must refetch
// from the database. Errors degrade reads to the database and are never
// surfaced to users.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, key string) error
}
