package orderlog

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"tableside/internal/domain"
)

// MemoryLog is an in-process log for development runs and tests. It
// can be told to fail the next append to exercise rollback paths.
type MemoryLog struct {
	mu       sync.Mutex
	orders   []domain.Order
	requests []domain.ServiceRequest
	nextErr  error
}

func NewMemoryLog() *MemoryLog { return &MemoryLog{} }

// FailNext makes the next Append return err instead of appending.
func (l *MemoryLog) FailNext(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextErr = err
}

func (l *MemoryLog) Append(ctx context.Context, order domain.Order) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.nextErr != nil {
		err := l.nextErr
		l.nextErr = nil
		return "", err
	}
	order.ID = uuid.NewString()
	l.orders = append(l.orders, order)
	return order.ID, nil
}

func (l *MemoryLog) AppendServiceRequest(ctx context.Context, req domain.ServiceRequest) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.nextErr != nil {
		err := l.nextErr
		l.nextErr = nil
		return "", err
	}
	req.ID = uuid.NewString()
	l.requests = append(l.requests, req)
	return req.ID, nil
}

// Orders returns a copy of everything appended so far.
func (l *MemoryLog) Orders() []domain.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Order(nil), l.orders...)
}

// ServiceRequests returns a copy of appended service requests.
func (l *MemoryLog) ServiceRequests() []domain.ServiceRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.ServiceRequest(nil), l.requests...)
}
