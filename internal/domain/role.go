package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the ordered privilege level assigned to a user. Higher roles
// satisfy every requirement a lower role satisfies.
type Role int

const (
	RoleNormalUser Role = iota
	RolePowerUser
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleNormalUser: "normal_user",
	RolePowerUser:  "power_user",
	RoleAdmin:      "admin",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Satisfies reports whether the role meets a required privilege level.
func (r Role) Satisfies(required Role) bool {
	return r >= required
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func ParseRole(s string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for role, name := range roleNames {
		if name == normalized {
			return role, nil
		}
	}
	return RoleNormalUser, fmt.Errorf("unknown role: %q", s)
}

// Roles cross the API boundary by name, never by ordinal.
func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal unknown role %d", int(r))
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	role, err := ParseRole(name)
	if err != nil {
		return err
	}
	*r = role
	return nil
}
