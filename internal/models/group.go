package models

import "github.com/shopspring/decimal"

// Frequency is how often members are expected to contribute.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// GroupStatus is the lifecycle state of a group.
type GroupStatus string

const (
	GroupActive    GroupStatus = "active"
	GroupCompleted GroupStatus = "completed"
	GroupCancelled GroupStatus = "cancelled"
)

// Group represents a shared savings pool.
//
// Invariant: JoinCode is non-empty if and only if IsPublic is false.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Holiday Fund").
	Name string

	// Description is optional free text.
	Description string

	// TargetAmount is the savings goal used to compute progress.
	TargetAmount decimal.Decimal

	// ContributionAmount is the expected amount of each contribution.
	ContributionAmount decimal.Decimal

	// ContributionFrequency is the expected contribution cadence.
	ContributionFrequency Frequency

	// MaxMembers caps the number of active memberships.
	MaxMembers int

	// IsPublic groups are listed for discovery and can be joined without a code.
	IsPublic bool

	// JoinCode is the 8-character code required to join a private group.
	JoinCode string

	// Status is active, completed or cancelled. Only active groups accept
	// members and contributions.
	Status GroupStatus

	// CreatorID is the user who created the group.
	CreatorID string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last change to the group.
	UpdatedAt int64
}

// IsActive reports whether the group accepts members and contributions.
func (g *Group) IsActive() bool {
	return g.Status == GroupActive
}
