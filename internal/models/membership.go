package models

// MemberRole is a user's role inside a single group.
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// Membership links a user to a group.
// A user holds at most one membership row per group; leaving deactivates the
// row and re-joining reactivates it, so transaction history stays attributed.
type Membership struct {
	ID       string
	GroupID  string
	UserID   string
	Role     MemberRole
	IsActive bool

	// JoinedAt is the Unix timestamp of the first join.
	JoinedAt int64
}

// IsAdmin reports whether the membership is an active admin membership.
func (m *Membership) IsAdmin() bool {
	return m.IsActive && m.Role == MemberRoleAdmin
}
