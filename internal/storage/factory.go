package storage

import "fmt"

// DefaultStoreKind is the backend used when none is selected.
func DefaultStoreKind() string {
	return "memory"
}

// NewStore builds a store by kind: "memory" (the default) or "sqlite".
// The sqlite backend needs the "sqlite" build tag; without it the request
// returns an error rather than silently downgrading to memory.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes stores that hold external resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
