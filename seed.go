package main

import (
	"context"
	"errors"
	"fmt"

	appinv "github.com/Zhima-Mochi/minishop-commerce/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"

	"github.com/shopspring/decimal"
)

type seedProduct struct {
	id       int64
	name     string
	category string
	price    string
	discount string
	stock    int
}

var demoCatalog = []seedProduct{
	{1, "Espresso Beans 1kg", "coffee", "24.90", "19.90", 40},
	{2, "Pour Over Kettle", "equipment", "59.00", "", 12},
	{3, "Ceramic Mug", "kitchen", "12.50", "", 100},
	{4, "Hand Grinder", "equipment", "89.00", "79.00", 8},
	{5, "Paper Filters x100", "coffee", "6.20", "", 250},
}

// seedCatalog registers the demo products that are not in the catalog yet,
// so restarting against a durable store never adds stock twice.
func seedCatalog(ctx context.Context, store catalog.Lookup, svc *appinv.Service) error {
	for _, sp := range demoCatalog {
		_, err := store.Product(ctx, sp.id)
		if err == nil {
			continue
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("seed: look up product %d: %w", sp.id, err)
		}

		p := catalog.Product{ID: sp.id, Name: sp.name, Category: sp.category, Price: decimal.RequireFromString(sp.price)}
		if sp.discount != "" {
			p.DiscountPrice = decimal.NewNullDecimal(decimal.RequireFromString(sp.discount))
		}
		if _, err := svc.UpsertProduct(ctx, appinv.UpsertProductInput{
			Actor:        identity.System,
			Product:      p,
			InitialStock: sp.stock,
		}); err != nil {
			return fmt.Errorf("seed: product %d: %w", sp.id, err)
		}
	}
	return nil
}
