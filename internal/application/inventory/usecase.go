package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	dominv "github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	inventoryService = "inventory-service"
	useCaseUpsert    = "inventory.upsert_product"
	useCaseRestock   = "inventory.restock"
	useCaseStock     = "inventory.stock_level"
)

type UpsertProductInput struct {
	Actor        identity.Actor
	Product      catalog.Product
	InitialStock int
}

type StockView struct {
	ProductID int64 `json:"product_id"`
	Available int   `json:"available"`
}

var _ application.UseCase[UpsertProductInput, StockView] = (*UpsertProductUseCase)(nil)

// UpsertProductUseCase registers or updates a product and optionally seeds its stock.
type UpsertProductUseCase struct {
	catalog catalog.Store
	ledger  dominv.Ledger
	clock   application.Clock
	in      application.Instrument
}

func NewUpsertProductUseCase(store catalog.Store, ledger dominv.Ledger, clock application.Clock, tel observability.Observability) *UpsertProductUseCase {
	return &UpsertProductUseCase{catalog: store, ledger: ledger, clock: clock, in: application.NewInstrument(inventoryService, tel)}
}

func (uc *UpsertProductUseCase) Execute(ctx context.Context, cmd UpsertProductInput) (_ StockView, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseUpsert, "UpsertProduct", attribute.Int64("product.id", cmd.Product.ID))
	defer func() { run.End(err) }()

	if err := cmd.Actor.RequireStaff(); err != nil {
		run.Fail("UNAUTHORIZED")
		return StockView{}, err
	}
	if err := cmd.Product.Validate(); err != nil {
		run.Fail("PRODUCT_INVALID")
		return StockView{}, err
	}
	if cmd.InitialStock < 0 {
		run.Fail("PRODUCT_INVALID")
		return StockView{}, application.Validation("initial stock must not be negative")
	}

	p := cmd.Product
	p.UpdatedAt = uc.clock.Now()
	if err := uc.catalog.Upsert(ctx, p); err != nil {
		run.Fail("CATALOG_WRITE_FAILED")
		return StockView{}, fmt.Errorf("%w: %w", application.ErrRepository, err)
	}

	available, err := uc.ledger.Restock(ctx, p.ID, cmd.InitialStock)
	if err != nil {
		run.Fail("STOCK_WRITE_FAILED")
		return StockView{}, fmt.Errorf("%w: %w", application.ErrRepository, err)
	}
	run.Note(observability.F("available", available))
	return StockView{ProductID: p.ID, Available: available}, nil
}

type RestockInput struct {
	Actor     identity.Actor
	ProductID int64
	Quantity  int
}

var _ application.UseCase[RestockInput, StockView] = (*RestockUseCase)(nil)

// RestockUseCase adds stock to a registered product and announces it on the bus.
type RestockUseCase struct {
	catalog   catalog.Lookup
	ledger    dominv.Ledger
	publisher domoutbox.Publisher
	clock     application.Clock
	in        application.Instrument
}

func NewRestockUseCase(lookup catalog.Lookup, ledger dominv.Ledger, publisher domoutbox.Publisher, clock application.Clock, tel observability.Observability) *RestockUseCase {
	return &RestockUseCase{
		catalog:   lookup,
		ledger:    ledger,
		publisher: publisher,
		clock:     clock,
		in:        application.NewInstrument(inventoryService, tel),
	}
}

func (uc *RestockUseCase) Execute(ctx context.Context, cmd RestockInput) (_ StockView, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseRestock, "Restock",
		attribute.Int64("product.id", cmd.ProductID),
		attribute.Int("quantity", cmd.Quantity),
	)
	defer func() { run.End(err) }()

	if err := cmd.Actor.RequireStaff(); err != nil {
		run.Fail("UNAUTHORIZED")
		return StockView{}, err
	}
	if err := dominv.ValidQuantity(cmd.Quantity); err != nil {
		run.Fail("QUANTITY_INVALID")
		return StockView{}, err
	}
	if _, err := uc.catalog.Product(ctx, cmd.ProductID); err != nil {
		run.Fail("PRODUCT_NOT_FOUND")
		return StockView{}, err
	}

	available, err := uc.ledger.Restock(ctx, cmd.ProductID, cmd.Quantity)
	if err != nil {
		run.Fail("STOCK_WRITE_FAILED")
		return StockView{}, fmt.Errorf("%w: %w", application.ErrRepository, err)
	}

	evt := dominv.RestockedEvent{ProductID: cmd.ProductID, Added: cmd.Quantity, Available: available, At: uc.clock.Now()}
	if pubErr := uc.in.Publish(ctx, uc.publisher, evt); pubErr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Note(observability.F("event_publish_error", pubErr.Error()))
	}
	run.Note(observability.F("available", available))
	return StockView{ProductID: cmd.ProductID, Available: available}, nil
}

// StockLevel reads availability for one product.
type StockLevel struct {
	ledger dominv.Ledger
	in     application.Instrument
}

func NewStockLevel(ledger dominv.Ledger, tel observability.Observability) *StockLevel {
	return &StockLevel{ledger: ledger, in: application.NewInstrument(inventoryService, tel)}
}

func (q *StockLevel) Execute(ctx context.Context, productID int64) (_ StockView, err error) {
	ctx, run := q.in.Begin(ctx, useCaseStock, "StockLevel", attribute.Int64("product.id", productID))
	defer func() { run.End(err) }()

	available, err := q.ledger.Available(ctx, productID)
	if err != nil {
		if errors.Is(err, dominv.ErrNotFound) {
			run.Fail("PRODUCT_NOT_FOUND")
			return StockView{}, err
		}
		run.Fail("STOCK_READ_FAILED")
		return StockView{}, fmt.Errorf("%w: %w", application.ErrRepository, err)
	}
	return StockView{ProductID: productID, Available: available}, nil
}
