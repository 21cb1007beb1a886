package httppresentation

import (
	"net/http"

	appcheckout "github.com/Zhima-Mochi/minishop-checkout/internal/application/checkout"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/apperr"
)

// addressPayload is either {"id": "..."} or the full inline address.
type addressPayload struct {
	ID         string `json:"id,omitempty"`
	FullName   string `json:"full_name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

func (a *addressPayload) input() (appcheckout.AddressInput, error) {
	fields := customer.AddressFields{
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
	inline := fields != customer.AddressFields{}
	switch {
	case a.ID != "" && inline:
		return appcheckout.AddressInput{}, apperr.Validation("address must be either an id or inline fields, not both")
	case a.ID != "":
		return appcheckout.AddressInput{ID: a.ID}, nil
	case inline:
		return appcheckout.AddressInput{Inline: &fields}, nil
	default:
		return appcheckout.AddressInput{}, nil
	}
}

type checkoutRequest struct {
	Email           string          `json:"email"`
	ShippingAddress addressPayload  `json:"shipping_address"`
	BillingAddress  *addressPayload `json:"billing_address,omitempty"`
	ShippingMethod  string          `json:"shipping_method,omitempty"`
}

type checkoutResponse struct {
	OrderID   string       `json:"order_id"`
	OrderCode string       `json:"order_code"`
	Status    order.Status `json:"status"`
	Total     int64        `json:"total"`
	Currency  string       `json:"currency"`
}

// cartOwner resolves the caller identity: a known customer id, or else the
// guest session id.
func cartOwner(r *http.Request) (owner, customerID string, err error) {
	if id := r.Header.Get(headerCustomerID); id != "" {
		return id, id, nil
	}
	if sid := r.Header.Get(headerSessionID); sid != "" {
		return sid, "", nil
	}
	return "", "", apperr.Validation("%s or %s header is required", headerCustomerID, headerSessionID)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	owner, customerID, err := cartOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	shipping, err := req.ShippingAddress.input()
	if err != nil {
		writeError(w, err)
		return
	}
	in := appcheckout.Input{
		CartOwner:       owner,
		CustomerID:      customerID,
		Email:           req.Email,
		ShippingAddress: shipping,
		ShippingMethod:  req.ShippingMethod,
		IdempotencyKey:  r.Header.Get(headerIdempotencyKey),
	}
	if req.BillingAddress != nil {
		billing, err := req.BillingAddress.input()
		if err != nil {
			writeError(w, err)
			return
		}
		in.BillingAddress = &billing
	}

	res, err := h.uc.Checkout.Execute(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, checkoutResponse{
		OrderID:   res.OrderID,
		OrderCode: res.OrderCode,
		Status:    res.Status,
		Total:     res.Total,
		Currency:  res.Currency,
	})
}
