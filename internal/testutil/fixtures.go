// Package testutil 提供测试辅助工具
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/ashwinyue/roundtable/internal/model"
	"gorm.io/datatypes"
)

// NewRole 构造测试角色
func NewRole(id, name, tag string) *model.Role {
	return &model.Role{
		ID:           id,
		Name:         name,
		Tag:          tag,
		Instructions: fmt.Sprintf("You are %s.", name),
		Expertise:    datatypes.NewJSONSlice([]string{}),
		Capabilities: datatypes.NewJSONSlice([]string{}),
	}
}

// NewMemory 构造测试记忆
func NewMemory(id, roleID, content string, relevance float64) *model.Memory {
	now := time.Now()
	expires := now.Add(30 * 24 * time.Hour)
	return &model.Memory{
		ID:             id,
		RoleID:         roleID,
		Content:        content,
		ContextType:    model.MemoryContextConversation,
		Relevance:      relevance,
		Importance:     1.0,
		LastAccessedAt: &now,
		ExpiresAt:      &expires,
	}
}

// AssertHelper 提供断言相关的测试辅助
type AssertHelper struct {
	t *testing.T
}

// NewAssertHelper 创建断言辅助器
func NewAssertHelper(t *testing.T) *AssertHelper {
	return &AssertHelper{t: t}
}

// NoError 断言没有错误
func (h *AssertHelper) NoError(err error, msgAndArgs ...interface{}) {
	h.t.Helper()
	if err != nil {
		h.t.Fatalf("Unexpected error: %v %v", err, msgAndArgs)
	}
}

// Error 断言有错误
func (h *AssertHelper) Error(err error, msgAndArgs ...interface{}) {
	h.t.Helper()
	if err == nil {
		h.t.Fatal("Expected error, got nil")
	}
}

// Equal 断言相等
func (h *AssertHelper) Equal(expected, actual interface{}, msgAndArgs ...interface{}) {
	h.t.Helper()
	if expected != actual {
		h.t.Fatalf("Expected %v, got %v %v", expected, actual, msgAndArgs)
	}
}

// True 断言为真
func (h *AssertHelper) True(condition bool, msgAndArgs ...interface{}) {
	h.t.Helper()
	if !condition {
		h.t.Fatalf("Expected true, got false %v", msgAndArgs)
	}
}

// False 断言为假
func (h *AssertHelper) False(condition bool, msgAndArgs ...interface{}) {
	h.t.Helper()
	if condition {
		h.t.Fatalf("Expected false, got true %v", msgAndArgs)
	}
}
