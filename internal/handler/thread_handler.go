package handler

import (
	"net/http"

	"github.com/ashwinyue/roundtable/internal/service"
	"github.com/ashwinyue/roundtable/internal/service/thread"
	"github.com/gin-gonic/gin"
)

// ThreadHandler 线程处理器
type ThreadHandler struct {
	svc *service.Services
}

// NewThreadHandler 创建线程处理器
func NewThreadHandler(svc *service.Services) *ThreadHandler {
	return &ThreadHandler{svc: svc}
}

// CreateThread 创建线程
func (h *ThreadHandler) CreateThread(c *gin.Context) {
	var req thread.CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.UserID == "" {
		req.UserID = getUserID(c)
	}

	t, err := h.svc.Thread.CreateThread(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	created(c, t)
}

// GetThread 获取线程
func (h *ThreadHandler) GetThread(c *gin.Context) {
	id := c.Param("id")

	t, err := h.svc.Thread.GetThread(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, t)
}

// ListThreads 列出线程
func (h *ThreadHandler) ListThreads(c *gin.Context) {
	page, size := getPagination(c)

	threads, total, err := h.svc.Thread.ListThreads(c.Request.Context(), &thread.ListThreadsRequest{
		UserID: getUserID(c),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": gin.H{
			"items": threads,
			"total": total,
			"page":  page,
			"size":  size,
		},
	})
}

// RenameThread 重命名线程
func (h *ThreadHandler) RenameThread(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	t, err := h.svc.Thread.RenameThread(c.Request.Context(), id, req.Title)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, t)
}

// DeleteThread 删除线程
func (h *ThreadHandler) DeleteThread(c *gin.Context) {
	id := c.Param("id")

	if err := h.svc.Thread.DeleteThread(c.Request.Context(), id); err != nil {
		errorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AssignRole 指派角色
func (h *ThreadHandler) AssignRole(c *gin.Context) {
	threadID := c.Param("id")
	roleID := c.Param("role_id")

	if err := h.svc.Thread.AssignRole(c.Request.Context(), threadID, roleID); err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"thread_id": threadID, "role_id": roleID})
}

// UnassignRole 取消角色指派
func (h *ThreadHandler) UnassignRole(c *gin.Context) {
	threadID := c.Param("id")
	roleID := c.Param("role_id")

	if err := h.svc.Thread.UnassignRole(c.Request.Context(), threadID, roleID); err != nil {
		errorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetState 获取线程会话状态
func (h *ThreadHandler) GetState(c *gin.Context) {
	id := c.Param("id")

	state, err := h.svc.State.Current(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, state)
}

// ListInteractions 列出线程交互审计记录
func (h *ThreadHandler) ListInteractions(c *gin.Context) {
	id := c.Param("id")
	page, size := getPagination(c)

	interactions, err := h.svc.Interaction.ListByThread(c.Request.Context(), id, (page-1)*size, size)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"interactions": interactions})
}
