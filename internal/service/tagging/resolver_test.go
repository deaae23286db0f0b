package tagging

import (
	"testing"

	"github.com/ashwinyue/roundtable/internal/model"
	"github.com/ashwinyue/roundtable/internal/testutil"
)

func testRoles() []*model.Role {
	return []*model.Role{
		testutil.NewRole("r1", "Writer", "Writer"),
		testutil.NewRole("r2", "Data Analyst", "data-analyst"),
		testutil.NewRole("r3", "Reviewer", "Reviewer"),
	}
}

func TestResolveExplicitID(t *testing.T) {
	roles := testRoles()

	// 显式参数优先于文本中的标签
	role := Resolve("@Writer please draft this", roles, "r3")
	if role == nil || role.ID != "r3" {
		t.Fatalf("Resolve() = %v, want role r3", role)
	}
}

func TestResolveInvalidExplicitFallsThrough(t *testing.T) {
	roles := testRoles()

	role := Resolve("@Writer please draft this", roles, "missing-id")
	if role == nil || role.ID != "r1" {
		t.Fatalf("Resolve() = %v, want fallthrough to tagged r1", role)
	}
}

func TestResolveTextTags(t *testing.T) {
	roles := testRoles()

	tests := []struct {
		name    string
		content string
		wantID  string // 空表示期望 nil
	}{
		{"simple tag", "@Writer draft the intro", "r1"},
		{"case insensitive", "hey @wRiTeR can you help", "r1"},
		{"tag mid sentence", "I think @Reviewer should check this", "r3"},
		{"hyphenated tag", "@data-analyst run the numbers", "r2"},
		{"unknown tag", "@Nobody what do you think", ""},
		{"no tag", "what does everyone think", ""},
		{"email not a tag", "send it to me@example.com please", ""},
		{"first of several", "@Reviewer and @Writer please align", "r3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role := Resolve(tt.content, roles, "")
			if tt.wantID == "" {
				if role != nil {
					t.Errorf("Resolve(%q) = %v, want nil", tt.content, role)
				}
				return
			}
			if role == nil || role.ID != tt.wantID {
				t.Errorf("Resolve(%q) = %v, want role %s", tt.content, role, tt.wantID)
			}
		})
	}
}
