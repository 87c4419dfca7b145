package catalog

import (
	"context"
	"errors"
	"fmt"

	model "github.com/Maxibaroni/bot-ia-motos/internal/model/catalog"
)

// ErrNotFound signals that no product matched the query. Callers build
// the marketplace fallback reply from it; it never surfaces raw.
var ErrNotFound = errors.New("product not found")

// Store is the catalog lookup contract. Search receives the raw user
// message, normalizes it (see intent.CleanQuery), and returns the first
// product whose name contains the cleaned query, in catalog order.
// The dialog router never knows which variant backs it.
type Store interface {
	Search(ctx context.Context, rawQuery string) (model.Product, error)
	Close() error
}

// Open selects a catalog variant by configuration.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "sqlite", "":
		store, err := openSQLite(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return NewMemoryStore(SeedProducts()), nil
	default:
		return nil, fmt.Errorf("unknown catalog backend %q", backend)
	}
}
