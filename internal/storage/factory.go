package storage

import (
	"fmt"
	"io"
	"strings"
)

// NewStore opens the backend named by kind. sqlitePath is only read by the
// sqlite backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "memory", "mem":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend %q (want memory or sqlite)", kind)
	}
}

// CloseIfSupported releases backends that hold resources, such as an open
// database handle.
func CloseIfSupported(store Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
