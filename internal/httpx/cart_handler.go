package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartHandler struct {
	Store  cart.Store
	Reader *CatalogReader
	Log    *zap.Logger
}

func (h *CartHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(Session)
		r.Get("/cart", h.getCart)
		r.Delete("/cart", h.clearCart)
		r.Post("/cart/items", h.addItem)
		r.Put("/cart/items/{id}", h.updateItem)
		r.Delete("/cart/items/{id}", h.removeItem)
	})
}

type cartResp struct {
	SessionID  string          `json:"sessionId"`
	Items      []cart.Item     `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Outcome    cart.Outcome    `json:"outcome,omitempty"`
}

type rejectionResp struct {
	Message string       `json:"message"`
	Outcome cart.Outcome `json:"outcome"`
	Item    cart.Item    `json:"item"`
}

func view(sessionID string, c *cart.Cart, outcome cart.Outcome) cartResp {
	items := c.Items()
	if items == nil {
		items = []cart.Item{}
	}
	return cartResp{
		SessionID:  sessionID,
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
		Outcome:    outcome,
	}
}

// mutate applies fn to the session cart through Store.Update. Rejections
// answer 409 and leave the stored cart as it was.
func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, fn cart.Mutation) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	sid := sessionID(ctx)

	c, res, err := h.Store.Update(ctx, sid, fn)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if res.Rejected() {
		writeJSON(w, http.StatusConflict, rejectionResp{Message: res.Reason(), Outcome: res.Outcome, Item: res.Item})
		return
	}
	writeJSON(w, http.StatusOK, view(sid, c, res.Outcome))
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r.Context())
	c, err := h.Store.Load(r.Context(), sid)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, view(sid, c, ""))
}

type addItemReq struct {
	ProductID string `json:"productId"`
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" {
		writeMessage(w, http.StatusBadRequest, "productId is required")
		return
	}

	// fetched outside the update so backend latency never holds the cart
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	p, err := h.Reader.Product(ctx, req.ProductID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.mutate(w, r, func(c *cart.Cart) (cart.Result, error) {
		return c.AddProduct(p), nil
	})
}

type updateItemReq struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemReq
	if err := decodeJSON(w, r, &req); err != nil || req.Quantity == nil {
		writeMessage(w, http.StatusBadRequest, "quantity is required")
		return
	}
	id := chi.URLParam(r, "id")
	h.mutate(w, r, func(c *cart.Cart) (cart.Result, error) {
		return c.SetQuantity(id, *req.Quantity)
	})
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutate(w, r, func(c *cart.Cart) (cart.Result, error) {
		if err := c.Remove(id); err != nil {
			return cart.Result{}, err
		}
		return cart.Result{Outcome: cart.OutcomeRemoved, Item: cart.Item{ID: id}}, nil
	})
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	_, _, err := h.Store.Update(r.Context(), sessionID(r.Context()), func(c *cart.Cart) (cart.Result, error) {
		c.Clear()
		return cart.Result{}, nil
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
