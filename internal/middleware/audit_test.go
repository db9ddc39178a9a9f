package middleware

import (
	"strings"
	"testing"
)

func TestParseRouteInfo(t *testing.T) {
	tests := []struct {
		path, method   string
		module, action string
	}{
		{"/api/projects/:id", "PUT", "Projects", "Update"},
		{"/api/applications/:id/status", "PUT", "Applications", "Update"},
		{"/api/messages", "POST", "Messages", "Create"},
		{"/api/projects/:id", "DELETE", "Projects", "Delete"},
		{"", "POST", "Unknown", "Create"},
	}

	for _, tt := range tests {
		module, action := parseRouteInfo(tt.path, tt.method)
		if module != tt.module || action != tt.action {
			t.Errorf("parseRouteInfo(%q, %q) = (%q, %q), expected (%q, %q)",
				tt.path, tt.method, module, action, tt.module, tt.action)
		}
	}
}

func TestMaskSensitiveFields(t *testing.T) {
	body := `{"email":"a@uni.edu","password":"hunter22"}`
	masked := maskSensitiveFields(body)

	if strings.Contains(masked, "hunter22") {
		t.Errorf("password leaked: %s", masked)
	}
	if !strings.Contains(masked, `"email":"a@uni.edu"`) {
		t.Errorf("non-sensitive field altered: %s", masked)
	}
}

func TestFormatAuditMessage(t *testing.T) {
	if got := formatAuditMessage("a@uni.edu", "POST", "/api/projects", 201); got != "[Audit] a@uni.edu POST /api/projects -> OK" {
		t.Errorf("unexpected message %q", got)
	}
	if got := formatAuditMessage("anonymous", "PUT", "/api/tasks/1/status", 403); !strings.HasSuffix(got, "Failed") {
		t.Errorf("unexpected message %q", got)
	}
}
