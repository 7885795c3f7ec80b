package orderlog

import (
	"context"
	"fmt"
	"strconv"

	"tableside/internal/connections/database"
	"tableside/internal/domain"
)

// PostgresLog appends orders transactionally: the order row, its item
// rows and the initial status-log row commit together, and the
// generated order id becomes the external id.
type PostgresLog struct {
	db *database.Conn
}

func NewPostgresLog(db *database.Conn) *PostgresLog {
	return &PostgresLog{db: db}
}

func (l *PostgresLog) Append(ctx context.Context, order domain.Order) (string, error) {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO orders
		    (session_id, table_number, order_number, status, total_amount, restaurant_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		order.SessionID,
		order.TableNumber,
		order.OrderNumber,
		order.Status,
		order.Total,
		order.RestaurantID,
		order.CreatedAt,
	).Scan(&orderID)
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, item_id, name, quantity, unit_price, category)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, orderID, item.ItemID, item.Name, item.Quantity, item.UnitPrice, item.Category)
		if err != nil {
			return "", fmt.Errorf("insert order item %s: %w", item.Name, err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, 'tableside-client', NOW())
	`, orderID, order.Status)
	if err != nil {
		return "", fmt.Errorf("insert order status log: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return strconv.FormatInt(orderID, 10), nil
}

func (l *PostgresLog) AppendServiceRequest(ctx context.Context, req domain.ServiceRequest) (string, error) {
	var id int64
	err := l.db.QueryRow(ctx, `
		INSERT INTO service_requests (session_id, table_number, type, message, status, restaurant_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		req.SessionID, req.TableNumber, req.Type, req.Message, req.Status, req.RestaurantID, req.CreatedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert service request: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}
