package httppresentation

import (
	"net/http"

	appcart "github.com/Zhima-Mochi/minishop-checkout/internal/application/cart"
)

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	owner, _, err := cartOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.uc.GetCart.Execute(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type setCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleSetCartItem(w http.ResponseWriter, r *http.Request) {
	owner, _, err := cartOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req setCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := h.uc.SetCartItem.Execute(r.Context(), appcart.SetItemInput{
		Owner:     owner,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
