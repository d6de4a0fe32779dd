package enums

import (
	"slices"
	"strings"
)

// Role identifies which marketplace surface a session may use.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleRider    Role = "rider"
	RoleAdmin    Role = "admin"
)

var roles = []Role{RoleCustomer, RoleVendor, RoleRider, RoleAdmin}

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool { return slices.Contains(roles, r) }

// ParseRole ignores case and surrounding space.
func ParseRole(value string) (Role, error) {
	return parse("role", value, roles, strings.ToLower)
}
