// Package order turns a non-empty cart into an immutable order record,
// sequences it within the session, hands it to the remote log and
// keeps the local session-order history that billing folds over.
package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tableside/internal/cart"
	"tableside/internal/common/logger"
	"tableside/internal/domain"
	"tableside/internal/orderlog"
	"tableside/internal/storage"
)

var (
	// ErrEmptyCart rejects a submission with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoTable rejects a submission before a table was selected.
	ErrNoTable = errors.New("table number not set")
	// ErrSubmissionInProgress means another submit is still in flight.
	ErrSubmissionInProgress = errors.New("submission already in progress")
	// ErrSubmissionFailed wraps a remote append failure; the cart and
	// history are untouched and the caller may retry as-is.
	ErrSubmissionFailed = errors.New("order submission failed")
)

// Pipeline owns order creation. Orders it has appended are co-owned by
// the remote log (authoritative) and the local history (replica).
type Pipeline struct {
	store        storage.Store
	remote       orderlog.Log
	restaurantID string
	lg           *logger.Logger
	now          func() time.Time

	mu         sync.Mutex
	submitting bool
	history    []domain.Order
}

// NewPipeline restores the session-order history from the store; a
// corrupt payload degrades to an empty history.
func NewPipeline(ctx context.Context, store storage.Store, remote orderlog.Log, restaurantID string, lg *logger.Logger) (*Pipeline, error) {
	p := &Pipeline{
		store:        store,
		remote:       remote,
		restaurantID: restaurantID,
		lg:           lg,
		now:          time.Now,
	}
	var history []domain.Order
	ok, err := storage.ReadJSON(ctx, store, storage.KeySessionOrders, &history)
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}
	if ok {
		p.history = history
		lg.Info("history_restored", map[string]any{"orders": len(history)})
	}
	return p, nil
}

// Submit converts the cart into an order. Preconditions are checked in
// a fixed sequence and the first failure wins: empty cart, no table,
// in-flight submission. On success the order carries the next gap-free
// order number for the session, the remote log's external id is
// attached, the history is persisted and the cart is cleared. On
// remote failure nothing local changes and the guard is released so an
// immediate retry reuses the same intended number.
func (p *Pipeline) Submit(ctx context.Context, c *cart.Cart, s domain.Session) (domain.Order, error) {
	if c.Empty() {
		return domain.Order{}, ErrEmptyCart
	}
	if s.TableNumber == 0 {
		return domain.Order{}, ErrNoTable
	}
	if err := p.acquire(); err != nil {
		return domain.Order{}, err
	}
	defer p.release()

	items := c.Lines() // deep snapshot: lines are value types
	total := 0.0
	for _, l := range items {
		total += l.LineTotal()
	}

	p.mu.Lock()
	number := len(p.history) + 1
	p.mu.Unlock()

	o := domain.Order{
		SessionID:    s.ID,
		TableNumber:  s.TableNumber,
		Items:        items,
		Status:       domain.StatusPending,
		CreatedAt:    p.now(),
		Total:        total,
		OrderNumber:  number,
		RestaurantID: p.restaurantID,
	}

	externalID, err := p.remote.Append(ctx, o)
	if err != nil {
		p.lg.Error("order_submit_failed", err, map[string]any{"order_number": number})
		return domain.Order{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	o.ID = externalID

	p.mu.Lock()
	p.history = append(p.history, o)
	err = storage.WriteJSON(ctx, p.store, storage.KeySessionOrders, p.history)
	p.mu.Unlock()
	if err != nil {
		// The remote log already holds the order; local persistence
		// lag is logged but does not undo the submission.
		p.lg.Error("history_persist_failed", err, map[string]any{"order_number": number})
	}

	if err := c.Clear(ctx); err != nil {
		p.lg.Error("cart_clear_failed", err, map[string]any{"order_number": number})
	}

	p.lg.Info("order_submitted", map[string]any{
		"order_number": number, "external_id": externalID,
		"total": total, "items": o.ItemCount(),
	})
	return o, nil
}

// Reset drops the in-memory history without touching the store. Used
// after a session end has already purged the persisted history.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.history = nil
	p.mu.Unlock()
}

// History returns a snapshot of the session's orders, insertion order.
func (p *Pipeline) History() []domain.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Order(nil), p.history...)
}

// RequestService raises a staff call through the remote log. A table
// must be selected first.
func (p *Pipeline) RequestService(ctx context.Context, s domain.Session, typ string) (domain.ServiceRequest, error) {
	if s.TableNumber == 0 {
		return domain.ServiceRequest{}, ErrNoTable
	}
	msg, ok := serviceMessages[typ]
	if !ok {
		return domain.ServiceRequest{}, fmt.Errorf("unknown service request type %q", typ)
	}
	req := domain.ServiceRequest{
		SessionID:    s.ID,
		TableNumber:  s.TableNumber,
		Type:         typ,
		Message:      fmt.Sprintf("%s %d", msg, s.TableNumber),
		Status:       domain.StatusPending,
		CreatedAt:    p.now(),
		RestaurantID: p.restaurantID,
	}
	id, err := p.remote.AppendServiceRequest(ctx, req)
	if err != nil {
		p.lg.Error("service_request_failed", err, map[string]any{"type": typ})
		return domain.ServiceRequest{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	req.ID = id
	p.lg.Info("service_requested", map[string]any{"type": typ, "table": s.TableNumber})
	return req, nil
}

var serviceMessages = map[string]string{
	domain.ServiceWater:  "Water requested for table",
	domain.ServiceNapkin: "Napkins requested for table",
	domain.ServiceWaiter: "Waiter assistance requested for table",
}

// acquire takes the re-entrancy guard covering the async round trip to
// the remote log. It is independent of any UI widget state.
func (p *Pipeline) acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitting {
		return ErrSubmissionInProgress
	}
	p.submitting = true
	return nil
}

// release always runs, on success and failure alike.
func (p *Pipeline) release() {
	p.mu.Lock()
	p.submitting = false
	p.mu.Unlock()
}
