package authz

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"admin", RoleAdmin, false},
		{"client", RoleClient, false},
		{"", "", true},
		{"superuser", "", true},
		{"Admin", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRole(%q) accepted, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRole(%q) = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsAdmin(t *testing.T) {
	if !(Principal{Role: RoleAdmin}).IsAdmin() {
		t.Error("admin principal not recognized")
	}
	if (Principal{Role: RoleClient}).IsAdmin() {
		t.Error("client principal recognized as admin")
	}
}
