package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/activity"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/notify"
	"go.uber.org/zap"
)

var (
	ErrNotAuthenticated = errors.New("login required to place an order")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInProgress       = errors.New("an order is already being submitted")
)

const (
	msgLoginRequired = "Please log in to place an order"
	msgEmptyCart     = "Your cart is empty"
	msgPlaced        = "Order placed successfully!"
	msgFailed        = "Failed to place order. Please try again."
	msgCartNotClear  = "Order placed, but the cart could not be cleared"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
)

// Session is the part of the session the orchestrator reads
type Session interface {
	IsAuthenticated() bool
}

// Cart is the part of the cart the orchestrator reads and clears
type Cart interface {
	Lines() []cart.Line
	Clear(ctx context.Context) error
	Discard()
}

// Submitter sends the order to the backend
type Submitter interface {
	PlaceOrder(ctx context.Context, req order.Request) (order.Order, error)
}

// Orchestrator turns the current cart into a submitted order
type Orchestrator struct {
	session   Session
	cart      Cart
	submitter Submitter
	notifier  notify.Notifier
	publisher activity.Publisher
	logger    *zap.Logger

	mu    sync.Mutex
	phase Phase
}

func New(session Session, c Cart, submitter Submitter, notifier notify.Notifier, publisher activity.Publisher, logger *zap.Logger) *Orchestrator {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if publisher == nil {
		publisher = activity.Nop{}
	}
	return &Orchestrator{
		session:   session,
		cart:      c,
		submitter: submitter,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger.With(zap.String("component", "checkout")),
		phase:     PhaseIdle,
	}
}

// Phase reports whether a submission is in flight
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// PlaceOrder submits the cart. Preconditions are checked locally, in
// order, before any request: signed in, then a non-empty cart, then the
// customer details. The cart is cleared only after the backend confirms;
// on failure it is left intact and the error is returned after a notice.
func (o *Orchestrator) PlaceOrder(ctx context.Context, customerName, email string) (order.Order, error) {
	if !o.session.IsAuthenticated() {
		notify.Info(o.notifier, msgLoginRequired)
		return order.Order{}, ErrNotAuthenticated
	}
	lines := o.cart.Lines()
	if len(lines) == 0 {
		notify.Info(o.notifier, msgEmptyCart)
		return order.Order{}, ErrEmptyCart
	}
	req := BuildRequest(customerName, email, lines)
	if err := req.Validate(); err != nil {
		notify.Error(o.notifier, err.Error())
		return order.Order{}, err
	}

	if !o.begin() {
		return order.Order{}, ErrInProgress
	}
	defer o.end()

	o.logger.Info("submitting order", zap.Int("lines", len(req.Items)))
	confirmation, err := o.submitter.PlaceOrder(ctx, req)
	if err != nil {
		o.logger.Error("failed to place order", zap.Error(err))
		notify.Error(o.notifier, msgFailed)
		return order.Order{}, fmt.Errorf("failed to place order: %w", err)
	}

	if err := o.cart.Clear(ctx); err != nil {
		o.logger.Error("order placed but cart clear failed",
			zap.String("order_id", string(confirmation.OrderID)),
			zap.Error(err))
		o.cart.Discard()
		notify.Error(o.notifier, msgCartNotClear)
	} else {
		notify.Success(o.notifier, msgPlaced)
	}

	o.publisher.Publish(ctx, order.AggregateType, order.EventOrderPlaced, order.OrderPlaced{
		OrderID:      string(confirmation.OrderID),
		CustomerName: req.CustomerName,
		Items:        req.Items,
		Total:        total(lines),
		PlacedAt:     time.Now(),
	})
	o.logger.Info("order placed", zap.String("order_id", string(confirmation.OrderID)))
	return confirmation, nil
}

func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase == PhaseSubmitting {
		return false
	}
	o.phase = PhaseSubmitting
	return true
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phase = PhaseIdle
}

// BuildRequest maps cart lines to an order submission in cart order
func BuildRequest(customerName, email string, lines []cart.Line) order.Request {
	items := make([]order.RequestItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, order.RequestItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return order.Request{
		CustomerName: customerName,
		Email:        email,
		Items:        items,
	}
}

func total(lines []cart.Line) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}
