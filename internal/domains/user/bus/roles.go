package bus

import (
	"fmt"
)

// set of roles known to the system.
var (
	RoleAdmin = newRole("admin")
	RoleUser  = newRole("user")
)

// Role represents a role a user can hold, only the values above are valid.
type Role struct {
	value string
}

var validRoles = make(map[string]Role)

func newRole(val string) Role {
	r := Role{value: val}
	validRoles[val] = r
	return r
}

func (r Role) String() string {
	return r.value
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.value), nil
}

// ParseRole parses a string into a known role.
func ParseRole(val string) (Role, error) {
	r, ok := validRoles[val]
	if !ok {
		return Role{}, fmt.Errorf("invalid role: %s", val)
	}

	return r, nil
}

// ParseManyRoles parses every value into a known role.
func ParseManyRoles(vals []string) ([]Role, error) {
	roles := make([]Role, len(vals))

	for i, v := range vals {
		r, err := ParseRole(v)
		if err != nil {
			return nil, err
		}
		roles[i] = r
	}

	return roles, nil
}

// RolesToString converts roles into their string values.
func RolesToString(roles []Role) []string {
	res := make([]string, len(roles))
	for i, r := range roles {
		res[i] = r.value
	}

	return res
}
