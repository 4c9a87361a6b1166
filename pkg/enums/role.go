package enums

import (
	"fmt"
	"strings"
)

// Role is the platform-wide role attached to every principal.
type Role string

const (
	RoleAdministrator Role = "ADMINISTRATOR"
	RoleEntrepreneur  Role = "ENTREPRENEUR"
	RoleCustomer      Role = "CUSTOMER"
)

var validRoles = []Role{
	RoleAdministrator,
	RoleEntrepreneur,
	RoleCustomer,
}

// Roles returns every known role in declaration order.
func Roles() []Role {
	out := make([]Role, len(validRoles))
	copy(out, validRoles)
	return out
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role. Matching ignores case.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
