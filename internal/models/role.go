package models

// Role classifies an actor for authorization checks. One role type and one
// permission matrix; callers inject the result instead of re-deriving rules.
type Role string

const (
	RoleSeller Role = "seller"
	RoleBidder Role = "bidder"
	RoleAdmin  Role = "admin"
)

// Permission names an operation guarded by the matrix.
type Permission string

const (
	PermManageAuction Permission = "manage_auction"
	PermPlaceBid      Permission = "place_bid"
)

var permissionMatrix = map[Role]map[Permission]bool{
	RoleSeller: {PermManageAuction: true},
	RoleBidder: {PermPlaceBid: true},
	RoleAdmin:  {PermManageAuction: true, PermPlaceBid: true},
}

// Can reports whether the role is granted the permission. Unknown roles
// have no permissions.
func (r Role) Can(p Permission) bool {
	return permissionMatrix[r][p]
}

// ParseRole maps a wire value to a Role, defaulting unknown input to bidder
// so that unauthenticated reads never gain management rights.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleSeller, RoleAdmin:
		return Role(s)
	default:
		return RoleBidder
	}
}
