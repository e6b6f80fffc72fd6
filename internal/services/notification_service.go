package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Notification is a fire-and-forget event for the downstream notification
// dispatcher (email, push). Delivery is best-effort and never blocks or fails
// a money operation.
type Notification struct {
	Event         string `json:"event"`
	AccountNumber string `json:"account_number,omitempty"`
	ScheduleID    int64  `json:"schedule_id,omitempty"`
	Amount        string `json:"amount,omitempty"`
	Actor         string `json:"actor,omitempty"`
	Reason        string `json:"reason,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

type Notifier interface {
	Dispatch(ctx context.Context, n Notification)
}

const notificationQueue = "notification_queue"

// RedisNotifier pushes notification events onto a redis list consumed by the
// notification service. A nil client silently drops events, matching the
// optional redis setup.
type RedisNotifier struct {
	redis *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{redis: client}
}

func (n *RedisNotifier) Dispatch(ctx context.Context, notification Notification) {
	if n == nil || n.redis == nil {
		return
	}
	if notification.OccurredAt == "" {
		notification.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(notification)
	if err != nil {
		log.Printf("[NOTIFY] failed to marshal %s event: %v", notification.Event, err)
		return
	}
	if err := n.redis.RPush(ctx, notificationQueue, data).Err(); err != nil {
		log.Printf("[NOTIFY] failed to queue %s event: %v", notification.Event, err)
	}
}
