package httppresentation

import (
	"net/http"

	appcart "github.com/Zhima-Mochi/minishop-commerce/internal/application/cart"

	"github.com/shopspring/decimal"
)

type cartLineResponse struct {
	ProductID      int64               `json:"product_id"`
	Name           string              `json:"name"`
	Category       string              `json:"category"`
	Quantity       int                 `json:"quantity"`
	UnitPrice      decimal.Decimal     `json:"unit_price"`
	DiscountPrice  decimal.NullDecimal `json:"discount_price"`
	EffectivePrice decimal.Decimal     `json:"effective_price"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	Unavailable    bool                `json:"unavailable,omitempty"`
}

type cartResponse struct {
	UserID string             `json:"user_id"`
	Lines  []cartLineResponse `json:"lines"`
	Total  decimal.Decimal    `json:"total"`
}

func toCartResponse(v *appcart.View) cartResponse {
	out := cartResponse{UserID: v.UserID, Lines: make([]cartLineResponse, 0, len(v.Lines)), Total: v.Total}
	for _, l := range v.Lines {
		out.Lines = append(out.Lines, cartLineResponse{
			ProductID:      l.ProductID,
			Name:           l.Name,
			Category:       l.Category,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			DiscountPrice:  l.DiscountPrice,
			EffectivePrice: l.EffectivePrice,
			Subtotal:       l.Subtotal,
			Unavailable:    l.Unavailable,
		})
	}
	return out
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Cart.Get(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(v))
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	v, err := h.svc.Cart.AddItem(r.Context(), actorFrom(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(v))
}

func (h *Handler) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := int64Param(r, "productID")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req updateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	v, err := h.svc.Cart.UpdateItem(r.Context(), actorFrom(r.Context()), productID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(v))
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := int64Param(r, "productID")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	v, err := h.svc.Cart.RemoveItem(r.Context(), actorFrom(r.Context()), productID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(v))
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cart.Clear(r.Context(), actorFrom(r.Context())); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
