package storage

import "context"

// Op is a single write inside an atomic commit. Create fails when the
// key exists; otherwise the key must already exist.
type Op struct {
	Key    string
	Value  any
	Create bool
}

// Storage is a keyed record store. The coordinator keeps sessions,
// model versions and round bookkeeping under distinct key prefixes in
// one instance so cross-record writes can commit together.
type Storage interface {
	Create(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string) (any, error)
	Update(ctx context.Context, key string, value any) error
	List(ctx context.Context, prefix string, offset, limit uint64) ([]any, uint64, error)
	Delete(ctx context.Context, key string) error
	// Commit applies every op or none of them.
	Commit(ctx context.Context, ops []Op) error
}
