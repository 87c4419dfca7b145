package catalog

import (
	"context"
	"strings"

	"github.com/Maxibaroni/bot-ia-motos/internal/analysis/intent"
	model "github.com/Maxibaroni/bot-ia-motos/internal/model/catalog"
)

// MemoryStore serves the catalog from an ordered in-memory slice.
// It backs demo mode and tests.
type MemoryStore struct {
	products []model.Product
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied products.
func NewMemoryStore(products []model.Product) *MemoryStore {
	return &MemoryStore{products: append([]model.Product(nil), products...)}
}

// Search returns the first product whose name contains the cleaned
// query, case-insensitive.
func (s *MemoryStore) Search(_ context.Context, rawQuery string) (model.Product, error) {
	cleaned := intent.CleanQuery(rawQuery)
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), cleaned) {
			return p, nil
		}
	}
	return model.Product{}, ErrNotFound
}

// Close implements Store; nothing to release.
func (s *MemoryStore) Close() error { return nil }

// SeedProducts returns the demo inventory.
func SeedProducts() []model.Product {
	return []model.Product{
		{
			Name:        "Filtro de Aire Honda XR 250 Tornado",
			Price:       "$9.478",
			Description: "Filtro de aire de calidad original para Honda XR 250 Tornado. Hecho en Argentina.",
			URL:         "https://ejemplo.com/filtro-aire-honda-xr-250",
		},
	}
}
