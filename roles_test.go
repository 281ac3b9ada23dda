package authcore

import (
	"reflect"
	"testing"
)

func TestPermissionsForRoles(t *testing.T) {
	got := PermissionsForRoles([]string{"player"})
	want := rolePermissions["player"]
	if len(got) != len(want) {
		t.Fatalf("player permissions = %v", got)
	}

	// Unknown roles contribute nothing.
	if perms := PermissionsForRoles([]string{"wizard"}); len(perms) != 0 {
		t.Fatalf("unknown role permissions = %v", perms)
	}
	if perms := PermissionsForRoles(nil); len(perms) != 0 {
		t.Fatalf("nil roles permissions = %v", perms)
	}
}

func TestPermissionsForRolesDeduplicates(t *testing.T) {
	single := PermissionsForRoles([]string{"player"})
	doubled := PermissionsForRoles([]string{"player", "player"})
	if !reflect.DeepEqual(single, doubled) {
		t.Fatalf("duplicate roles changed output: %v vs %v", single, doubled)
	}

	combined := PermissionsForRoles([]string{"player", "moderator"})
	seen := make(map[string]int)
	for _, p := range combined {
		seen[p]++
		if seen[p] > 1 {
			t.Fatalf("duplicate permission %q in %v", p, combined)
		}
	}
}

func TestPermissionsForRolesSorted(t *testing.T) {
	perms := PermissionsForRoles([]string{"admin", "moderator", "player"})
	for i := 1; i < len(perms); i++ {
		if perms[i-1] > perms[i] {
			t.Fatalf("permissions not sorted: %v", perms)
		}
	}
}

func TestKnownRole(t *testing.T) {
	for _, role := range []string{"player", "moderator", "admin"} {
		if !KnownRole(role) {
			t.Fatalf("KnownRole(%q) = false", role)
		}
	}
	if KnownRole("wizard") || KnownRole("") {
		t.Fatal("unexpected known role")
	}
}
