package httppresentation

import (
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
	"github.com/go-chi/chi/v5"
)

type orderLineResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	LineTotal   int64  `json:"line_total"`
}

type paymentResponse struct {
	ID             string         `json:"id"`
	Method         string         `json:"method"`
	Amount         int64          `json:"amount"`
	Status         payment.Status `json:"status"`
	Reference      string         `json:"reference"`
	TransactionID  string         `json:"transaction_id,omitempty"`
	FailureMessage string         `json:"failure_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type orderResponse struct {
	ID                string              `json:"id"`
	Code              string              `json:"code"`
	CustomerID        string              `json:"customer_id"`
	Status            order.Status        `json:"status"`
	Currency          string              `json:"currency"`
	SubTotal          int64               `json:"subtotal"`
	Shipping          int64               `json:"shipping"`
	Tax               int64               `json:"tax"`
	Total             int64               `json:"total"`
	ShippingAddressID string              `json:"shipping_address_id"`
	BillingAddressID  string              `json:"billing_address_id"`
	ShippingMethodID  string              `json:"shipping_method_id,omitempty"`
	Lines             []orderLineResponse `json:"lines"`
	Payments          []paymentResponse   `json:"payments"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	v, err := h.uc.GetOrder.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	o := v.Order
	resp := orderResponse{
		ID:                o.ID,
		Code:              o.Code,
		CustomerID:        o.CustomerID,
		Status:            o.Status,
		Currency:          o.Currency,
		SubTotal:          o.Totals.SubTotal,
		Shipping:          o.Totals.Shipping,
		Tax:               o.Totals.Tax,
		Total:             o.Totals.Total,
		ShippingAddressID: o.ShippingAddressID,
		BillingAddressID:  o.BillingAddressID,
		ShippingMethodID:  o.ShippingMethodID,
		Lines:             make([]orderLineResponse, 0, len(o.Lines)),
		Payments:          make([]paymentResponse, 0, len(v.Payments)),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, orderLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		})
	}
	for _, p := range v.Payments {
		resp.Payments = append(resp.Payments, paymentResponse{
			ID:             p.ID,
			Method:         p.Method,
			Amount:         p.Amount,
			Status:         p.Status,
			Reference:      p.Reference,
			TransactionID:  p.TransactionID,
			FailureMessage: p.FailureMessage,
			CreatedAt:      p.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
