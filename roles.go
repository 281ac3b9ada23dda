package authcore

import "sort"

// DefaultRole is assigned to every newly registered user.
const DefaultRole = "player"

// rolePermissions is the fixed role-to-permission mapping baked into the
// engine. Permission derivation is a pure function of the role set; there
// is no runtime role administration.
var rolePermissions = map[string][]string{
	"player": {
		"profile:read",
		"profile:write",
		"quiz:play",
		"quiz:submit",
		"leaderboard:read",
	},
	"moderator": {
		"profile:read",
		"profile:write",
		"quiz:play",
		"quiz:submit",
		"quiz:review",
		"leaderboard:read",
		"reports:read",
	},
	"admin": {
		"profile:read",
		"profile:write",
		"quiz:play",
		"quiz:submit",
		"quiz:review",
		"quiz:create",
		"quiz:delete",
		"leaderboard:read",
		"leaderboard:manage",
		"reports:read",
		"users:manage",
	},
}

// PermissionsForRoles derives the deduplicated, sorted permission list for
// a role set. Unknown roles contribute nothing.
func PermissionsForRoles(roles []string) []string {
	seen := make(map[string]struct{})
	for _, role := range roles {
		for _, perm := range rolePermissions[role] {
			seen[perm] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for perm := range seen {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out
}

// KnownRole reports whether the role exists in the fixed mapping.
func KnownRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}
