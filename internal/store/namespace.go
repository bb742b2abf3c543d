package store

import "context"

// Namespaced returns a view of inner with every key prefixed. Each chat gets
// its own profile and summaries records while the pipeline keeps using the
// fixed logical keys.
func Namespaced(inner Store, prefix string) Store {
	return &namespacedStore{inner: inner, prefix: prefix}
}

type namespacedStore struct {
	inner  Store
	prefix string
}

func (s *namespacedStore) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *namespacedStore) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

// Close is a no-op: the underlying store is shared across namespaces and
// closed by its owner.
func (s *namespacedStore) Close() error {
	return nil
}
