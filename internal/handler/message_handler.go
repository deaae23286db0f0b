package handler

import (
	"errors"

	"github.com/ashwinyue/roundtable/internal/service"
	"github.com/ashwinyue/roundtable/internal/service/orchestrator"
	"github.com/gin-gonic/gin"
)

// MessageHandler 消息处理器
type MessageHandler struct {
	svc *service.Services
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(svc *service.Services) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// PostMessageRequest 发送消息请求
type PostMessageRequest struct {
	Content      string `json:"content" binding:"required"`
	TaggedRoleID string `json:"tagged_role_id"`
}

// PostMessage 发送用户消息并执行响应链
func (h *MessageHandler) PostMessage(c *gin.Context) {
	threadID := c.Param("id")

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	messages, err := h.svc.Orchestrator.HandleMessage(c.Request.Context(), threadID, req.Content, req.TaggedRoleID)
	if err != nil {
		if errors.Is(err, orchestrator.ErrNoRolesAssigned) {
			badRequest(c, err)
			return
		}
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"messages": messages})
}

// ListMessages 获取线程消息
func (h *MessageHandler) ListMessages(c *gin.Context) {
	threadID := c.Param("id")

	messages, err := h.svc.Thread.Messages(c.Request.Context(), threadID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"messages": messages})
}
