package handler

import (
	"net/http"

	"github.com/ashwinyue/roundtable/internal/service"
	"github.com/ashwinyue/roundtable/internal/service/role"
	"github.com/gin-gonic/gin"
)

// RoleHandler 角色处理器
type RoleHandler struct {
	svc *service.Services
}

// NewRoleHandler 创建角色处理器
func NewRoleHandler(svc *service.Services) *RoleHandler {
	return &RoleHandler{svc: svc}
}

// CreateRole 创建角色
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req role.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.svc.Role.CreateRole(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	created(c, r)
}

// GetRole 获取角色
func (h *RoleHandler) GetRole(c *gin.Context) {
	id := c.Param("id")

	r, err := h.svc.Role.GetRole(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, r)
}

// ListRoles 列出角色
func (h *RoleHandler) ListRoles(c *gin.Context) {
	page, size := getPagination(c)

	roles, err := h.svc.Role.ListRoles(c.Request.Context(), page, size)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"roles": roles})
}

// UpdateRole 更新角色
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id := c.Param("id")
	var req role.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.svc.Role.UpdateRole(c.Request.Context(), id, &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, r)
}

// DeleteRole 删除角色
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id := c.Param("id")

	if err := h.svc.Role.DeleteRole(c.Request.Context(), id); err != nil {
		errorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
