// Package cart holds the per-session cart and enforces the per-item
// quantity cap and the distinct-line cap on every mutation.
package cart

import (
	"errors"
	"slices"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrNotInCart = errors.New("item not in cart")

type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

// LineTotal is Price * Quantity.
func (it Item) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Limits struct {
	MaxItemQuantity int
	MaxCartItems    int
}

func DefaultLimits() Limits {
	return Limits{MaxItemQuantity: 10, MaxCartItems: 100}
}

type Outcome string

const (
	OutcomeAdded             Outcome = "ADDED"
	OutcomeIncremented       Outcome = "INCREMENTED"
	OutcomeUpdated           Outcome = "UPDATED"
	OutcomeRemoved           Outcome = "REMOVED"
	OutcomeRejectedItemLimit Outcome = "REJECTED_ITEM_LIMIT"
	OutcomeRejectedCartFull  Outcome = "REJECTED_CART_FULL"
)

// Result reports what a mutation did. On rejection Item is the unchanged
// line (or the candidate when it was never added).
type Result struct {
	Outcome Outcome
	Item    Item
}

func (r Result) Rejected() bool {
	return r.Outcome == OutcomeRejectedItemLimit || r.Outcome == OutcomeRejectedCartFull
}

// Reason is a user-facing explanation for a rejection, empty otherwise.
func (r Result) Reason() string {
	switch r.Outcome {
	case OutcomeRejectedItemLimit:
		return "maximum quantity reached for " + r.Item.Name
	case OutcomeRejectedCartFull:
		return "cart is full"
	default:
		return ""
	}
}

// Cart is not safe for concurrent use; a Store hands each request its own copy.
type Cart struct {
	limits Limits
	items  []Item
	log    *zap.Logger
}

func New(limits Limits, log *zap.Logger) *Cart {
	if limits.MaxItemQuantity <= 0 || limits.MaxCartItems <= 0 {
		limits = DefaultLimits()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cart{limits: limits, log: log}
}

// Restore rebuilds a cart from persisted items. Lines with a non-positive
// quantity are dropped.
func Restore(limits Limits, log *zap.Logger, items []Item) *Cart {
	c := New(limits, log)
	for _, it := range items {
		if it.Quantity >= 1 {
			c.items = append(c.items, it)
		}
	}
	return c
}

func (c *Cart) Limits() Limits { return c.limits }

// Add increments an existing line by one or appends a new line with
// quantity 1. Exceeding either cap leaves the cart unchanged.
func (c *Cart) Add(item Item) Result {
	if i := c.index(item.ID); i >= 0 {
		next := c.items[i].Quantity + 1
		if next > c.limits.MaxItemQuantity {
			c.log.Warn("cart add rejected: maximum quantity reached",
				zap.String("item_id", item.ID), zap.Int("max", c.limits.MaxItemQuantity))
			return Result{Outcome: OutcomeRejectedItemLimit, Item: c.items[i]}
		}
		c.items[i].Quantity = next
		return Result{Outcome: OutcomeIncremented, Item: c.items[i]}
	}

	if len(c.items) >= c.limits.MaxCartItems {
		c.log.Warn("cart add rejected: cart is full",
			zap.String("item_id", item.ID), zap.Int("max", c.limits.MaxCartItems))
		item.Quantity = 0
		return Result{Outcome: OutcomeRejectedCartFull, Item: item}
	}
	item.Quantity = 1
	c.items = append(c.items, item)
	return Result{Outcome: OutcomeAdded, Item: item}
}

// AddProduct snapshots name, price and image of p and adds it.
func (c *Cart) AddProduct(p catalog.Product) Result {
	return c.Add(Item{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Image: p.ImageOrPlaceholder(),
	})
}

// SetQuantity overwrites a line's quantity. A quantity below 1 removes the
// line; one above the per-item cap is rejected.
func (c *Cart) SetQuantity(id string, qty int) (Result, error) {
	i := c.index(id)
	if i < 0 {
		return Result{}, ErrNotInCart
	}
	if qty < 1 {
		removed := c.items[i]
		c.items = slices.Delete(c.items, i, i+1)
		return Result{Outcome: OutcomeRemoved, Item: removed}, nil
	}
	if qty > c.limits.MaxItemQuantity {
		c.log.Warn("cart update rejected: maximum quantity reached",
			zap.String("item_id", id), zap.Int("requested", qty), zap.Int("max", c.limits.MaxItemQuantity))
		return Result{Outcome: OutcomeRejectedItemLimit, Item: c.items[i]}, nil
	}
	c.items[i].Quantity = qty
	return Result{Outcome: OutcomeUpdated, Item: c.items[i]}, nil
}

func (c *Cart) Remove(id string) error {
	i := c.index(id)
	if i < 0 {
		return ErrNotInCart
	}
	c.items = slices.Delete(c.items, i, i+1)
	return nil
}

func (c *Cart) Clear() { c.items = nil }

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item { return slices.Clone(c.items) }

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) TotalItems() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (c *Cart) index(id string) int {
	return slices.IndexFunc(c.items, func(it Item) bool { return it.ID == id })
}
