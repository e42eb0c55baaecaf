package httppresentation

import (
	"net/http"
	"time"

	apporder "github.com/Zhima-Mochi/minishop-commerce/internal/application/order"
	domorder "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type orderResponse struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	Status        domorder.Status   `json:"status"`
	Lines         []domorder.Line   `json:"lines"`
	Total         decimal.Decimal   `json:"total"`
	Delivery      domorder.Delivery `json:"delivery"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		Status:        o.Status,
		Lines:         o.Lines,
		Total:         o.Total,
		Delivery:      o.Delivery,
		PaymentMethod: string(o.PaymentMethod),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

type orderStatusResponse struct {
	OrderID   string          `json:"order_id"`
	Status    domorder.Status `json:"status"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type orderPageResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Size   int             `json:"size"`
}

type confirmPaymentRequest struct {
	Method string `json:"method"`
}

type updateDeliveryRequest struct {
	Method       string `json:"method"`
	Address      string `json:"address"`
	ContactPhone string `json:"contact_phone"`
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.PlaceOrder(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.GetOrderByID(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleGetOrderStatus(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Orders.GetOrderStatus(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderStatusResponse{OrderID: v.OrderID, Status: v.Status, UpdatedAt: v.UpdatedAt})
}

func (h *Handler) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	o, err := h.svc.Orders.ConfirmPayment(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "orderID"), req.Method)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.CancelOrder(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleUpdateDelivery(w http.ResponseWriter, r *http.Request) {
	var req updateDeliveryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	o, err := h.svc.Orders.UpdateOrderDelivery(r.Context(), apporder.UpdateDeliveryInput{
		Actor:        actorFrom(r.Context()),
		OrderID:      chi.URLParam(r, "orderID"),
		Method:       req.Method,
		Address:      req.Address,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleListUserOrders(w http.ResponseWriter, r *http.Request) {
	number, err := intQuery(r, "page", 0)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	size, err := intQuery(r, "size", domorder.DefaultPageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.svc.Orders.GetOrdersByUser(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "userID"),
		domorder.Page{Number: number, Size: size})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := orderPageResponse{
		Orders: make([]orderResponse, 0, len(res.Orders)),
		Total:  res.Total,
		Page:   res.Page.Number,
		Size:   res.Page.Size,
	}
	for _, o := range res.Orders {
		out.Orders = append(out.Orders, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}
