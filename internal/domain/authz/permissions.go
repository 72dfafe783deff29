// Package authz defines the permission identifiers known to the admin
// panel and the roles that grant them.
package authz

// Permission identifies a single guarded capability.
type Permission string

const (
	UserView                Permission = "user.view"
	UserAdministrate        Permission = "user.administrate"
	GuestServerView         Permission = "guest_server.view"
	GuestServerAdministrate Permission = "guest_server.administrate"
)

// PermissionSet is the set of permissions granted to the current user.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from individual permissions.
func NewPermissionSet(permissions ...Permission) PermissionSet {
	set := make(PermissionSet, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the permission.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Slice returns the contained permissions as strings, for serialization
// into session claims.
func (s PermissionSet) Slice() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	return out
}

// ParsePermissions rebuilds a set from serialized claim values. Unknown
// values are kept; they simply never match a guarded route.
func ParsePermissions(values []string) PermissionSet {
	set := make(PermissionSet, len(values))
	for _, v := range values {
		set[Permission(v)] = struct{}{}
	}
	return set
}

// RolePermissions maps a role name to the permissions it grants.
var RolePermissions = map[string][]Permission{
	"admin": {
		UserView,
		UserAdministrate,
		GuestServerView,
		GuestServerAdministrate,
	},
	"user_admin": {
		UserView,
		UserAdministrate,
	},
	"guest_server_admin": {
		GuestServerView,
		GuestServerAdministrate,
	},
	"orga": {
		UserView,
		GuestServerView,
	},
}

// PermissionsForRoles resolves the union of permissions granted by the
// given roles. Unknown roles grant nothing.
func PermissionsForRoles(roles []string) PermissionSet {
	set := make(PermissionSet)
	for _, role := range roles {
		for _, p := range RolePermissions[role] {
			set[p] = struct{}{}
		}
	}
	return set
}
