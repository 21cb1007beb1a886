package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MStockRejections         MetricKey = "checkout_stock_rejections_total"
	MPaymentTransitions      MetricKey = "payment_transitions_total"
	MWebhookDeliveries       MetricKey = "payment_webhook_deliveries_total"
)

// MetricDef describes how an instrument is registered.
type MetricDef struct {
	Key    MetricKey
	Help   string
	Labels []string
}

var Counters = []MetricDef{
	{MUsecaseRequests, "Total number of use case invocations.", []string{"use_case", "outcome"}},
	{MHTTPRequests, "Total number of HTTP requests.", []string{"method", "route", "status"}},
	{MExternalRequests, "Calls to external peers.", []string{"peer", "endpoint", "outcome"}},
	{MStockRejections, "Checkout lines rejected by stock validation.", []string{"reason"}},
	{MPaymentTransitions, "Payment state transitions.", []string{"to"}},
	{MWebhookDeliveries, "Provider webhook deliveries by outcome.", []string{"outcome"}},
}

var Histograms = []MetricDef{
	{MUsecaseDuration, "Duration of use case execution in seconds.", []string{"use_case"}},
	{MHTTPRequestDuration, "HTTP request latency in seconds.", []string{"method", "route", "status"}},
	{MExternalRequestDuration, "Latency of calls to external peers in seconds.", []string{"peer", "endpoint"}},
}
