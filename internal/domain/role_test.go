package domain

import (
	"encoding/json"
	"testing"
)

func TestRoleSatisfies(t *testing.T) {
	cases := []struct {
		role     Role
		required Role
		want     bool
	}{
		{RoleNormalUser, RoleNormalUser, true},
		{RoleNormalUser, RolePowerUser, false},
		{RoleNormalUser, RoleAdmin, false},
		{RolePowerUser, RoleNormalUser, true},
		{RolePowerUser, RolePowerUser, true},
		{RolePowerUser, RoleAdmin, false},
		{RoleAdmin, RoleNormalUser, true},
		{RoleAdmin, RolePowerUser, true},
		{RoleAdmin, RoleAdmin, true},
	}
	for _, tc := range cases {
		if got := tc.role.Satisfies(tc.required); got != tc.want {
			t.Fatalf("%v.Satisfies(%v) = %v, want %v", tc.role, tc.required, got, tc.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, name := range []string{"normal_user", "power_user", "admin"} {
		role, err := ParseRole(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if role.String() != name {
			t.Fatalf("round trip %q -> %v", name, role)
		}
	}
	if role, err := ParseRole("  Admin "); err != nil || role != RoleAdmin {
		t.Fatalf("parse with padding and case: %v, %v", role, err)
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestRoleJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(RolePowerUser)
	if err != nil {
		t.Fatalf("marshal role: %v", err)
	}
	if string(raw) != `"power_user"` {
		t.Fatalf("role marshals as %s, want its name", raw)
	}

	var role Role
	if err := json.Unmarshal([]byte(`"admin"`), &role); err != nil {
		t.Fatalf("unmarshal role: %v", err)
	}
	if role != RoleAdmin {
		t.Fatalf("unmarshalled role = %v", role)
	}
	if err := json.Unmarshal([]byte(`"superuser"`), &role); err == nil {
		t.Fatalf("expected error for unknown role name")
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleNormalUser.Valid() || !RolePowerUser.Valid() || !RoleAdmin.Valid() {
		t.Fatalf("known roles must be valid")
	}
	if Role(99).Valid() {
		t.Fatalf("unknown role must be invalid")
	}
}
