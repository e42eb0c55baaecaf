package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MStockReservations       MetricKey = "stock_reservations_total"
	MNotifications           MetricKey = "notifications_total"
	MLowStock                MetricKey = "stock_low_total"
	MBusEvents               MetricKey = "bus_events_total"
)

// MetricSpec describes how a MetricKey is exported.
type MetricSpec struct {
	Key    MetricKey
	Help   string
	Labels []string
}

// CounterSpecs lists every counter the service records.
var CounterSpecs = []MetricSpec{
	{MUsecaseRequests, "Total number of use case invocations.", []string{"use_case", "outcome"}},
	{MHTTPRequests, "Total number of HTTP requests.", []string{"method", "route", "status"}},
	{MExternalRequests, "Calls to external peers such as the event bus or broker.", []string{"peer", "endpoint", "outcome"}},
	{MStockReservations, "Stock reservation attempts by outcome.", []string{"outcome"}},
	{MNotifications, "Order notifications by outcome.", []string{"outcome"}},
	{MBusEvents, "Events seen by the in-process bus by stage.", []string{"event", "stage"}},
	{MLowStock, "Placements that left a product at or below the low stock threshold.", nil},
}

// HistogramSpecs lists every histogram the service records.
var HistogramSpecs = []MetricSpec{
	{MUsecaseDuration, "Duration of use case execution in seconds.", []string{"use_case"}},
	{MHTTPRequestDuration, "HTTP request latency in seconds.", []string{"method", "route", "status"}},
	{MExternalRequestDuration, "Latency of external calls in seconds.", []string{"peer", "endpoint"}},
}
