package models

// Role is a member's role within one organization. Roles are ordered:
// OWNER > ADMIN > MEMBER > EXTERNAL, and every privilege check goes
// through the rank helpers rather than string comparison.
type Role string

const (
	RoleOwner    Role = "OWNER"
	RoleAdmin    Role = "ADMIN"
	RoleMember   Role = "MEMBER"
	RoleExternal Role = "EXTERNAL"
)

var roleRank = map[Role]int{
	RoleExternal: 1,
	RoleMember:   2,
	RoleAdmin:    3,
	RoleOwner:    4,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank returns the privilege rank of r; higher means more privileged.
// Unknown roles rank below every valid role.
func (r Role) Rank() int {
	return roleRank[r]
}

// AtLeast reports whether r carries at least the privilege of other.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// Assignable reports whether r is a legal target for a role transition.
// OWNER is never assigned through a role change.
func (r Role) Assignable() bool {
	return r == RoleAdmin || r == RoleMember || r == RoleExternal
}

// OrgType distinguishes personal accounts from business tenants.
type OrgType string

const (
	OrgIndividual OrgType = "INDIVIDUAL"
	OrgBusiness   OrgType = "BUSINESS"
)

// Valid reports whether t is a known organization type.
func (t OrgType) Valid() bool {
	return t == OrgIndividual || t == OrgBusiness
}
