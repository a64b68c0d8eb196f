package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Checkouts reads recorded checkouts back; *ledger.Repo implements it.
type Checkouts interface {
	Get(ctx context.Context, id string) (ledger.Checkout, error)
}

type CheckoutHandler struct {
	Store    cart.Store
	Service  *checkout.Service
	Pincodes *checkout.PincodeResolver
	Ledger   Checkouts
	Log      *zap.Logger
}

func (h *CheckoutHandler) Register(r chi.Router) {
	r.With(Session).Post("/checkout", h.checkout)
	r.Get("/pincode/{pin}", h.pincode)
	if h.Ledger != nil {
		r.Get("/checkouts/{id}", h.getCheckout)
	}
}

type checkoutReq struct {
	Address checkout.Address `json:"address"`
}

func (h *CheckoutHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	sid := sessionID(ctx)

	c, err := h.Store.Load(ctx, sid)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	res, err := h.Service.Checkout(ctx, checkout.Request{
		SessionID: sid,
		Key:       r.Header.Get("Idempotency-Key"),
		UserAgent: r.UserAgent(),
		Items:     c.Items(),
		Address:   req.Address,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	// drop only the lines that were checked out; a replay leaves the cart alone
	if !res.Duplicate {
		items := c.Items()
		_, _, err := h.Store.Update(ctx, sid, func(c *cart.Cart) (cart.Result, error) {
			for _, it := range items {
				_ = c.Remove(it.ID)
			}
			return cart.Result{}, nil
		})
		if err != nil {
			h.Log.Warn("clear cart after checkout failed", zap.String("session_id", sid), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CheckoutHandler) pincode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Pincodes.Resolve(ctx, chi.URLParam(r, "pin"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CheckoutHandler) getCheckout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, h.Log, ledger.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	c, err := h.Ledger.Get(ctx, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
