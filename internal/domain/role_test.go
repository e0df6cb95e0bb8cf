package domain

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		tag  string
		want Role
	}{
		{"user", RoleUser},
		{"human", RoleUser},
		{"assistant", RoleAssistant},
		{"ai", RoleAssistant},
		{"", RoleAssistant},
		{"system", RoleAssistant},
	}

	for _, tt := range tests {
		if got := ParseRole(tt.tag); got != tt.want {
			t.Errorf("ParseRole(%q) = %s, want %s", tt.tag, got, tt.want)
		}
	}
}
