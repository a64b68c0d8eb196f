package checkout

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/events"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/ledger"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrEmptyCart = errors.New("cart is empty")

// Recorder stores checkouts by idempotency key; *ledger.Repo implements it.
type Recorder interface {
	Record(ctx context.Context, e ledger.Entry) (id string, existed bool, err error)
	Lookup(ctx context.Context, key string) (c ledger.Checkout, found bool, err error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header) bool
}

type Request struct {
	SessionID string
	Key       string // idempotency key, generated when empty
	UserAgent string
	Items     []cart.Item
	Address   Address
}

type Result struct {
	CheckoutID string `json:"checkoutId"`
	Message    string `json:"message"`
	Link       string `json:"link"`
	Duplicate  bool   `json:"duplicate,omitempty"`
}

// Service composes the checkout message. Pincodes, Ledger and Events are
// optional.
type Service struct {
	ContactPhone string
	Pincodes     *PincodeResolver
	Ledger       Recorder
	Events       Publisher
	ServiceName  string
	Log          *zap.Logger
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// Checkout validates the address, builds the message and deep link, records
// the lines in the ledger and announces the checkout. Ledger and publish
// failures are logged and do not fail the checkout.
//
// A key already in the ledger replays the recorded lines with
// Duplicate=true, whatever req.Items holds; the cart is usually empty by
// then.
func (s *Service) Checkout(ctx context.Context, req Request) (Result, error) {
	addr := req.Address.Normalize()
	if s.Pincodes != nil && ValidPincode(addr.Pincode) {
		addr = s.Pincodes.Fill(ctx, addr)
	}
	if verrs := addr.Validate(); verrs != nil {
		return Result{}, verrs
	}
	if res, ok := s.replay(ctx, req, addr); ok {
		return res, nil
	}
	if len(req.Items) == 0 {
		return Result{}, ErrEmptyCart
	}

	msg := ComposeMessage(req.Items, addr)
	res := Result{
		Message: msg,
		Link:    DeepLink(s.ContactPhone, msg, req.UserAgent),
	}

	key := req.Key
	if key == "" {
		key = uuid.NewString()
	}
	res.CheckoutID = key
	if s.Ledger != nil {
		id, existed, err := s.Ledger.Record(ctx, toEntry(key, req))
		if err != nil {
			s.logger().Warn("checkout ledger write failed", zap.String("checkout_key", key), zap.Error(err))
		} else {
			res.CheckoutID, res.Duplicate = id, existed
		}
	}

	if !res.Duplicate {
		s.publish(req, res.CheckoutID)
	}
	s.logger().Info("checkout composed",
		zap.String("checkout_id", res.CheckoutID),
		zap.Int("lines", len(req.Items)),
		zap.Bool("duplicate", res.Duplicate))
	return res, nil
}

func (s *Service) replay(ctx context.Context, req Request, addr Address) (Result, bool) {
	if req.Key == "" || s.Ledger == nil {
		return Result{}, false
	}
	prev, found, err := s.Ledger.Lookup(ctx, req.Key)
	if err != nil {
		s.logger().Warn("checkout ledger lookup failed", zap.String("checkout_key", req.Key), zap.Error(err))
		return Result{}, false
	}
	if !found {
		return Result{}, false
	}

	items := make([]cart.Item, 0, len(prev.Lines))
	for _, l := range prev.Lines {
		items = append(items, cart.Item{ID: l.ProductID, Name: l.Name, Price: l.Price, Quantity: l.Qty})
	}
	msg := ComposeMessage(items, addr)
	s.logger().Info("checkout replayed", zap.String("checkout_id", prev.ID), zap.String("checkout_key", req.Key))
	return Result{
		CheckoutID: prev.ID,
		Message:    msg,
		Link:       DeepLink(s.ContactPhone, msg, req.UserAgent),
		Duplicate:  true,
	}, true
}

func toEntry(key string, req Request) ledger.Entry {
	lines := make([]ledger.Line, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, ledger.Line{ProductID: it.ID, Name: it.Name, Qty: it.Quantity, Price: it.Price})
	}
	return ledger.Entry{Key: key, SessionID: req.SessionID, Lines: lines}
}

func (s *Service) publish(req Request, checkoutID string) {
	if s.Events == nil {
		return
	}
	lines := make([]events.CheckoutLine, 0, len(req.Items))
	total := decimal.Zero
	for _, it := range req.Items {
		lines = append(lines, events.CheckoutLine{ProductID: it.ID, Qty: it.Quantity, Price: it.Price})
		total = total.Add(it.LineTotal())
	}
	ev, err := events.NewEnvelope(events.EventCheckoutComposed, s.ServiceName, "", checkoutID,
		events.CheckoutComposedPayload{CheckoutID: checkoutID, SessionID: req.SessionID, Lines: lines, Total: total})
	if err != nil {
		s.logger().Warn("encode checkout event", zap.Error(err))
		return
	}
	if !s.Events.Publish(events.PartitionKey(checkoutID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: events.HeaderEventType, Value: []byte(events.EventCheckoutComposed)},
		kafkago.Header{Key: events.HeaderEventVersion, Value: []byte("1")},
	) {
		s.logger().Warn("checkout event dropped", zap.String("checkout_id", checkoutID))
	}
}
