package httppresentation

import (
	"net/http"

	appinv "github.com/Zhima-Mochi/minishop-commerce/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"

	"github.com/shopspring/decimal"
)

type upsertProductRequest struct {
	Name          string              `json:"name"`
	Category      string              `json:"category"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	InitialStock  int                 `json:"initial_stock"`
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleUpsertProduct(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "productID")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req upsertProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	v, err := h.svc.Inventory.UpsertProduct(r.Context(), appinv.UpsertProductInput{
		Actor: actorFrom(r.Context()),
		Product: catalog.Product{
			ID:            id,
			Name:          req.Name,
			Category:      req.Category,
			Price:         req.Price,
			DiscountPrice: req.DiscountPrice,
		},
		InitialStock: req.InitialStock,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "productID")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req restockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	v, err := h.svc.Inventory.Restock(r.Context(), actorFrom(r.Context()), id, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleStockLevel(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "productID")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	v, err := h.svc.Inventory.StockLevel(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
