// Package notify 通过 Redis 发布消息行变更，供订阅方渲染占位/最终更新。
// 通知只保证外部响应性，不参与正确性：失败仅记日志
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ashwinyue/roundtable/internal/model"
	"github.com/redis/go-redis/v9"
)

// 事件类型
const (
	EventMessageCreated = "message.created"
	EventMessageUpdated = "message.updated"
)

// Event 消息变更事件
type Event struct {
	Type      string `json:"type"`
	ThreadID  string `json:"thread_id"`
	MessageID string `json:"message_id"`
	RoleID    string `json:"role_id,omitempty"`
	Status    string `json:"status"`
}

// Notifier 变更通知器。client 为 nil 时所有操作为 no-op
type Notifier struct {
	client *redis.Client
}

// NewNotifier 创建通知器
func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

// MessageCreated 发布消息创建事件
func (n *Notifier) MessageCreated(ctx context.Context, msg *model.Message) {
	n.publish(ctx, EventMessageCreated, msg)
}

// MessageUpdated 发布消息更新事件
func (n *Notifier) MessageUpdated(ctx context.Context, msg *model.Message) {
	n.publish(ctx, EventMessageUpdated, msg)
}

func (n *Notifier) publish(ctx context.Context, eventType string, msg *model.Message) {
	if n == nil || n.client == nil {
		return
	}

	event := Event{
		Type:      eventType,
		ThreadID:  msg.ThreadID,
		MessageID: msg.ID,
		Status:    msg.Status,
	}
	if msg.RoleID != nil {
		event.RoleID = *msg.RoleID
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Warning: failed to marshal notify event: %v", err)
		return
	}

	channel := fmt.Sprintf("thread:%s", msg.ThreadID)
	if err := n.client.Publish(ctx, channel, payload).Err(); err != nil {
		log.Printf("Warning: failed to publish notify event: %v", err)
	}
}
