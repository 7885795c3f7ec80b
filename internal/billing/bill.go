// Package billing folds the session-order history into a bill. It
// owns no state: every calculation is a fresh pure fold.
package billing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"tableside/internal/domain"
)

// ErrNothingToBill rejects finalization of a session with no orders.
var ErrNothingToBill = errors.New("no orders placed in this session")

const (
	serviceChargeRate = 0.10
	gstRate           = 0.05
)

// Calculate folds history into the bill breakdown. The service charge
// is rounded before GST is computed on the service-charge-inclusive
// amount; that staging order is load-bearing for rupee-exact totals.
func Calculate(s domain.Session, history []domain.Order, at time.Time) domain.Bill {
	subtotal := 0.0
	itemCount := 0
	for _, o := range history {
		subtotal += o.Total
		itemCount += o.ItemCount()
	}
	serviceCharge := math.Round(subtotal * serviceChargeRate)
	gst := math.Round((subtotal + serviceCharge) * gstRate)

	duration := at.Sub(s.StartedAt)
	if duration < 0 {
		duration = 0
	}

	return domain.Bill{
		SessionID:       s.ID,
		TableNumber:     s.TableNumber,
		GeneratedAt:     at,
		SessionDuration: duration,
		Orders:          append([]domain.Order(nil), history...),
		Subtotal:        subtotal,
		ServiceCharge:   serviceCharge,
		GST:             gst,
		Total:           subtotal + serviceCharge + gst,
		ItemCount:       itemCount,
	}
}

// SessionEnder is the capability Finalize needs from the session
// manager: deactivate and purge the visit.
type SessionEnder interface {
	End(ctx context.Context) error
}

// Finalize computes the bill, then ends the session (full purge of all
// session-scoped state). An empty history fails with ErrNothingToBill
// and leaves everything untouched.
func Finalize(ctx context.Context, ender SessionEnder, s domain.Session, history []domain.Order, at time.Time) (domain.Bill, error) {
	if len(history) == 0 {
		return domain.Bill{}, ErrNothingToBill
	}
	bill := Calculate(s, history, at)
	if err := ender.End(ctx); err != nil {
		return domain.Bill{}, fmt.Errorf("end session: %w", err)
	}
	return bill, nil
}

// ShareText renders the bill for a clipboard or share-sheet handoff.
func ShareText(b domain.Bill) string {
	var sb strings.Builder
	sb.WriteString("🍽️ Restaurant Bill\n")
	sb.WriteString("━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&sb, "📅 %s\n", b.GeneratedAt.Format("02 Jan 2006"))
	fmt.Fprintf(&sb, "🕐 %s\n", b.GeneratedAt.Format("3:04 PM"))
	fmt.Fprintf(&sb, "🪑 Table %d\n", b.TableNumber)
	fmt.Fprintf(&sb, "⏱️ Session: %s\n\n", formatDuration(b.SessionDuration))
	fmt.Fprintf(&sb, "📋 Orders Placed: %d\n", len(b.Orders))
	fmt.Fprintf(&sb, "🍴 Total Items: %d\n", b.ItemCount)
	fmt.Fprintf(&sb, "💰 Total Amount: ₹%.0f\n\n", b.Total)
	sb.WriteString("Thank you for dining with us! 🙏")
	return sb.String()
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
