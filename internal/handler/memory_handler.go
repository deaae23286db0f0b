package handler

import (
	"github.com/ashwinyue/roundtable/internal/service"
	"github.com/gin-gonic/gin"
)

// MemoryHandler 记忆维护处理器
type MemoryHandler struct {
	svc *service.Services
}

// NewMemoryHandler 创建记忆处理器
func NewMemoryHandler(svc *service.Services) *MemoryHandler {
	return &MemoryHandler{svc: svc}
}

// ListMemories 列出角色的记忆
func (h *MemoryHandler) ListMemories(c *gin.Context) {
	roleID := c.Param("id")
	page, size := getPagination(c)

	memories, err := h.svc.Memory.ListMemories(c.Request.Context(), roleID, (page-1)*size, size)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"memories": memories})
}

// Consolidate 合并角色的近似重复记忆
func (h *MemoryHandler) Consolidate(c *gin.Context) {
	roleID := c.Param("id")

	merged, err := h.svc.Memory.Consolidate(c.Request.Context(), roleID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"merged": merged})
}

// Prune 清理角色的过期记忆
func (h *MemoryHandler) Prune(c *gin.Context) {
	roleID := c.Param("id")

	pruned, err := h.svc.Memory.PruneExpired(c.Request.Context(), roleID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"pruned": pruned})
}
