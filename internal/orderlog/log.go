// Package orderlog talks to the authoritative, kitchen-shared store of
// submitted orders. The client only ever appends; status transitions
// happen on the kitchen side.
package orderlog

import (
	"context"

	"tableside/internal/domain"
)

// Log is the remote append-only order log. Append returns the durable
// external id the log assigned to the order.
type Log interface {
	Append(ctx context.Context, order domain.Order) (externalID string, err error)
	AppendServiceRequest(ctx context.Context, req domain.ServiceRequest) (externalID string, err error)
}

// Priority buckets orders by value so big tickets jump the kitchen
// queue sooner.
func Priority(total float64) int {
	switch {
	case total >= 100:
		return 10
	case total >= 50:
		return 5
	default:
		return 1
	}
}
