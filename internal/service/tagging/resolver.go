// Package tagging 解析消息中的显式角色引用
package tagging

import (
	"regexp"
	"strings"

	"github.com/ashwinyue/roundtable/internal/model"
)

// tagPattern @tag 词边界匹配
var tagPattern = regexp.MustCompile(`(^|\s)@([\p{L}\p{N}_-]+)\b`)

// Resolve 解析消息指向的角色。
// 显式参数优先于文本扫描；标签未命中任何指派角色时返回 nil，
// 按未引用处理（标签语法是提示，不是硬性要求）
func Resolve(content string, roles []*model.Role, explicitRoleID string) *model.Role {
	if explicitRoleID != "" {
		for _, role := range roles {
			if role.ID == explicitRoleID {
				return role
			}
		}
		// 显式 ID 无效时继续尝试文本标签
	}

	for _, match := range tagPattern.FindAllStringSubmatch(content, -1) {
		tag := match[2]
		for _, role := range roles {
			if strings.EqualFold(role.Tag, tag) {
				return role
			}
		}
	}

	return nil
}
