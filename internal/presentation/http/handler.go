package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-commerce/internal/application/cart"
	appinv "github.com/Zhima-Mochi/minishop-commerce/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-commerce/internal/application/order"
	appstats "github.com/Zhima-Mochi/minishop-commerce/internal/application/statistics"
	domcart "github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	dominv "github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	componentHTTPHandler = "http_server"
	tracerName           = "minishop.http"
)

// Services are the application entry points the HTTP layer exposes.
type Services struct {
	Cart       *appcart.Service
	Orders     *apporder.Service
	Statistics *appstats.Engine
	Inventory  *appinv.Service
}

type Handler struct {
	svc     Services
	metrics http.Handler
	log     observability.Logger

	reqCounter   observability.Counter   // http_requests_total{method,route,status}
	durHistogram observability.Histogram // http_request_duration_seconds{method,route,status}
}

// NewHandler builds the HTTP surface. metrics, when not nil, is served on /metrics.
func NewHandler(svc Services, metrics http.Handler, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		svc:          svc,
		metrics:      metrics,
		log:          tel.Logger().With(observability.F("component", componentHTTPHandler)),
		reqCounter:   tel.Metrics().Counter(observability.MHTTPRequests),
		durHistogram: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	h.handle(r, http.MethodGet, "/cart", h.handleGetCart)
	h.handle(r, http.MethodDelete, "/cart", h.handleClearCart)
	h.handle(r, http.MethodPost, "/cart/items", h.handleAddCartItem)
	h.handle(r, http.MethodPut, "/cart/items/{productID}", h.handleUpdateCartItem)
	h.handle(r, http.MethodDelete, "/cart/items/{productID}", h.handleRemoveCartItem)

	h.handle(r, http.MethodPost, "/orders", h.handlePlaceOrder)
	h.handle(r, http.MethodGet, "/orders/{orderID}", h.handleGetOrder)
	h.handle(r, http.MethodGet, "/orders/{orderID}/status", h.handleGetOrderStatus)
	h.handle(r, http.MethodPost, "/orders/{orderID}/payment", h.handleConfirmPayment)
	h.handle(r, http.MethodPost, "/orders/{orderID}/cancel", h.handleCancelOrder)
	h.handle(r, http.MethodPut, "/orders/{orderID}/delivery", h.handleUpdateDelivery)
	h.handle(r, http.MethodGet, "/users/{userID}/orders", h.handleListUserOrders)

	h.handle(r, http.MethodGet, "/statistics/top-purchased", staffOnly(h.handleTopPurchased))
	h.handle(r, http.MethodGet, "/statistics/top-cancelled", staffOnly(h.handleTopCancelled))
	h.handle(r, http.MethodGet, "/statistics/pending-payment", staffOnly(h.handleStuckInPending))
	h.handle(r, http.MethodGet, "/statistics/profit", staffOnly(h.handleProfit))
	h.handle(r, http.MethodGet, "/statistics/overview", staffOnly(h.handleOverview))

	h.handle(r, http.MethodPut, "/admin/products/{productID}", h.handleUpsertProduct)
	h.handle(r, http.MethodPost, "/admin/products/{productID}/restock", h.handleRestock)
	h.handle(r, http.MethodGet, "/products/{productID}/stock", h.handleStockLevel)

	return r
}

// handle registers a route wrapped as
// Trace → Request Logger → Metrics → Access Log → Identity → Handler.
func (h *Handler) handle(r chi.Router, method, pattern string, handler http.HandlerFunc) {
	route := method + " " + pattern
	wrapped := h.withTrace(
		ObservabilityMiddleware(h.log, func(r *http.Request) string { return r.Header.Get(headerRequestID) })(
			h.withHTTPMetrics(
				h.withAccessLog(
					withIdentity(handler),
				),
			),
		),
	)
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		wrapped.ServeHTTP(w, req.WithContext(contextWithRoute(req.Context(), route)))
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("user_id", r.Header.Get(headerUserID)),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer(tracerName)
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		if template == "unknown" || template == "" {
			template = r.URL.Path
		}

		ctx, span := tracer.Start(parentCtx, spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withHTTPMetrics records RED-ish HTTP metrics using injected vectors.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		labels := []observability.Label{
			observability.L("method", r.Method),
			observability.L("route", routeFromContext(r.Context())),
			observability.L("status", strconv.Itoa(lrw.status)),
		}
		h.reqCounter.Add(1, labels...)
		h.durHistogram.Observe(time.Since(start).Seconds(), labels...)
	})
}

func staffOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := actorFrom(r.Context()).RequireStaff(); err != nil {
			writeDomainError(w, err)
			return
		}
		next(w, r)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeMessage(w, status, err.Error())
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, dominv.ErrNotFound),
		errors.Is(err, domcart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, dominv.ErrInsufficientStock),
		errors.Is(err, domorder.ErrInvalidStateTransition),
		errors.Is(err, domorder.ErrConflict),
		errors.Is(err, domcart.ErrConflict):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, identity.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domcart.ErrEmptyCart),
		errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, dominv.ErrInvalidQuantity),
		errors.Is(err, dompayment.ErrInvalidMethod),
		errors.Is(err, domorder.ErrInvalidDelivery),
		errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, appstats.ErrInvalidQuery),
		errors.Is(err, application.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

func int64Param(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, application.Validation(name + " must be a positive integer")
	}
	return v, nil
}

// intQuery reads an optional integer query parameter, returning def when absent.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, application.Validation(name + " must be an integer")
	}
	return v, nil
}
