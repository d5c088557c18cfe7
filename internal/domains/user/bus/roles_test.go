package bus_test

import (
	"testing"

	"github.com/hamidoujand/roster/internal/domains/user/bus"
)

func Test_ParseManyRoles(t *testing.T) {
	roles, err := bus.ParseManyRoles([]string{"admin", "user"})
	if err != nil {
		t.Fatalf("failed to parse roles: %s", err)
	}

	if roles[0] != bus.RoleAdmin || roles[1] != bus.RoleUser {
		t.Errorf("roles=%v, got=%v", []bus.Role{bus.RoleAdmin, bus.RoleUser}, roles)
	}

	if _, err := bus.ParseManyRoles([]string{"user", "root"}); err == nil {
		t.Errorf("expected unknown role to fail")
	}
}
