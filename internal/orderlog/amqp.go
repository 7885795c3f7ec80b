package orderlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tableside/internal/common/logger"
	"tableside/internal/connections/rabbitmq"
	"tableside/internal/domain"
)

// AMQPLog appends orders by publishing them to the orders topic
// exchange with publisher confirms. The broker's ack is the durability
// point; the message id doubles as the external id.
type AMQPLog struct {
	client *rabbitmq.Client
	lg     *logger.Logger
}

func NewAMQPLog(client *rabbitmq.Client, lg *logger.Logger) *AMQPLog {
	return &AMQPLog{client: client, lg: lg}
}

func (l *AMQPLog) Append(ctx context.Context, order domain.Order) (string, error) {
	id := uuid.NewString()
	priority := Priority(order.Total)
	msg := domain.OrderMessage{
		ExternalID:   id,
		SessionID:    order.SessionID,
		OrderNumber:  order.OrderNumber,
		TableNumber:  order.TableNumber,
		Items:        order.Items,
		Total:        order.Total,
		Status:       order.Status,
		Priority:     priority,
		RestaurantID: order.RestaurantID,
		CreatedAt:    order.CreatedAt,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal order message: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	key := fmt.Sprintf("kitchen.dine_in.%d", priority)
	if err := l.client.Publish(pctx, rabbitmq.OrdersExchange, key, body, id, uint8(priority)); err != nil {
		return "", fmt.Errorf("publish order: %w", err)
	}

	l.lg.Debug("order_published", map[string]any{
		"external_id": id, "order_number": order.OrderNumber, "routing_key": key,
	})
	return id, nil
}

func (l *AMQPLog) AppendServiceRequest(ctx context.Context, req domain.ServiceRequest) (string, error) {
	id := uuid.NewString()
	req.ID = id
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal service request: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := l.client.Publish(pctx, rabbitmq.OrdersExchange, rabbitmq.ServiceRoutingKey, body, id, 0); err != nil {
		return "", fmt.Errorf("publish service request: %w", err)
	}
	return id, nil
}
