package httppresentation

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-checkout/internal/application/cart"
	appcheckout "github.com/Zhima-Mochi/minishop-checkout/internal/application/checkout"
	apporder "github.com/Zhima-Mochi/minishop-checkout/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-checkout/internal/application/payment"
	domcart "github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerSessionID      = "X-Session-ID"
	headerCustomerID     = "X-Customer-ID"
	headerIdempotencyKey = "Idempotency-Key"
	headerSignature      = "X-Paystack-Signature"
)

// UseCases are the application entry points the HTTP surface drives.
type UseCases struct {
	Checkout          application.UseCase[appcheckout.Input, *appcheckout.Result]
	InitializePayment application.UseCase[apppayment.InitializeInput, *apppayment.InitializeResult]
	VerifyPayment     application.UseCase[apppayment.VerifyInput, *apppayment.VerifyResult]
	Webhook           application.UseCase[apppayment.WebhookInput, *apppayment.WebhookResult]
	GetOrder          application.UseCase[string, *apporder.View]
	GetCart           application.UseCase[string, *domcart.Cart]
	SetCartItem       application.UseCase[appcart.SetItemInput, *domcart.Cart]
}

type Options struct {
	// CallbackURL is sent to the provider when a client does not supply one.
	CallbackURL string
	// Metrics is mounted on GET /metrics when set.
	Metrics http.Handler
}

type Handler struct {
	uc   UseCases
	opts Options
	log  observability.Logger
	tel  observability.Observability
}

func NewHandler(uc UseCases, opts Options, logger observability.Logger, tel observability.Observability) *Handler {
	tel = observability.OrNop(tel)
	if logger == nil {
		logger = tel.Logger()
	}
	return &Handler{
		uc:   uc,
		opts: opts,
		log:  logger.With(observability.F("component", componentHTTPHandler)),
		tel:  tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	h.handle(r, http.MethodPost, "/checkout", h.handleCheckout)
	h.handle(r, http.MethodPost, "/checkout/verify", h.handleVerify)
	h.handle(r, http.MethodPost, "/payments/initialize", h.handleInitializePayment)
	h.handle(r, http.MethodPost, "/webhooks/paystack", h.handleWebhook)
	h.handle(r, http.MethodGet, "/orders/{id}", h.handleGetOrder)
	h.handle(r, http.MethodGet, "/cart", h.handleGetCart)
	h.handle(r, http.MethodPut, "/cart/items", h.handleSetCartItem)
	r.Get("/health", h.handleHealth)
	if h.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.opts.Metrics)
	}
	return r
}

// handle wraps each route: Trace → request logger + metrics → access log → handler.
func (h *Handler) handle(r chi.Router, method, pattern string, fn http.HandlerFunc) {
	route := method + " " + pattern
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
			h.tel,
		)(
			h.withAccessLog(fn),
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

// withAccessLog writes a single access log after the handler completes, using
// the request-scoped logger injected by ObservabilityMiddleware.
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
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace starts a server span for the request, continuing any W3C trace
// context sent by the caller.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("minishop.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		ctx, span := tracer.Start(parentCtx, route,
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

type routeKey struct{}

// contextWithRoute stores the route template so metrics and logs carry
// low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
