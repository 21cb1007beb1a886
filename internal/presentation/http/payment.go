package httppresentation

import (
	"net/http"

	apppayment "github.com/Zhima-Mochi/minishop-checkout/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
)

type initializePaymentRequest struct {
	OrderID     string `json:"order_id"`
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type initializePaymentResponse struct {
	PaymentID        string `json:"payment_id"`
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
}

func (h *Handler) handleInitializePayment(w http.ResponseWriter, r *http.Request) {
	var req initializePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	callback := req.CallbackURL
	if callback == "" {
		callback = h.opts.CallbackURL
	}
	res, err := h.uc.InitializePayment.Execute(r.Context(), apppayment.InitializeInput{
		OrderID:     req.OrderID,
		Email:       req.Email,
		Amount:      req.Amount,
		CallbackURL: callback,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, initializePaymentResponse{
		PaymentID:        res.PaymentID,
		Reference:        res.Reference,
		AuthorizationURL: res.AuthorizationURL,
		AccessCode:       res.AccessCode,
	})
}

// verifyRequest mirrors what the storefront sends after redirect. Status and
// Amount are accepted but never trusted; the provider is asked instead.
type verifyRequest struct {
	OrderID   string `json:"order_id,omitempty"`
	Reference string `json:"reference,omitempty"`
	Status    string `json:"status,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
}

type verifyResponse struct {
	OrderID       string         `json:"order_id"`
	Reference     string         `json:"reference"`
	PaymentStatus payment.Status `json:"payment_status"`
	OrderStatus   order.Status   `json:"order_status"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.uc.VerifyPayment.Execute(r.Context(), apppayment.VerifyInput{
		OrderID:   req.OrderID,
		Reference: req.Reference,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{
		OrderID:       res.OrderID,
		Reference:     res.Reference,
		PaymentStatus: res.PaymentStatus,
		OrderStatus:   res.OrderStatus,
	})
}

type webhookResponse struct {
	Event   string `json:"event"`
	Outcome string `json:"outcome"`
}

// handleWebhook passes the raw body through untouched; the signature is
// computed over the exact bytes received.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.uc.Webhook.Execute(r.Context(), apppayment.WebhookInput{
		Payload:   body,
		Signature: r.Header.Get(headerSignature),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, webhookResponse{Event: res.Event, Outcome: res.Outcome})
}
