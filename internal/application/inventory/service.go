package inventory

import (
	"context"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	dominv "github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
)

// Service groups catalog and stock administration.
type Service struct {
	upsert  *UpsertProductUseCase
	restock *RestockUseCase
	stock   *StockLevel
}

func NewService(store catalog.Store, ledger dominv.Ledger, publisher domoutbox.Publisher, clock application.Clock, tel observability.Observability) *Service {
	return &Service{
		upsert:  NewUpsertProductUseCase(store, ledger, clock, tel),
		restock: NewRestockUseCase(store, ledger, publisher, clock, tel),
		stock:   NewStockLevel(ledger, tel),
	}
}

func (s *Service) UpsertProduct(ctx context.Context, in UpsertProductInput) (StockView, error) {
	return s.upsert.Execute(ctx, in)
}

func (s *Service) Restock(ctx context.Context, actor identity.Actor, productID int64, quantity int) (StockView, error) {
	return s.restock.Execute(ctx, RestockInput{Actor: actor, ProductID: productID, Quantity: quantity})
}

func (s *Service) StockLevel(ctx context.Context, productID int64) (StockView, error) {
	return s.stock.Execute(ctx, productID)
}
