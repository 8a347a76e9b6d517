package savings

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Iamregulus/Group-savings-app/internal/calculator"
	"github.com/Iamregulus/Group-savings-app/internal/models"
	"github.com/Iamregulus/Group-savings-app/internal/storage"
)

// CreateGroupInput carries the fields of a new group. Amounts are decimal
// strings; IsPublic defaults to true when nil.
type CreateGroupInput struct {
	Name                  string `validate:"required,max=100"`
	Description           string `validate:"max=1000"`
	TargetAmount          string `validate:"required"`
	ContributionAmount    string `validate:"required"`
	ContributionFrequency string `validate:"required,oneof=daily weekly monthly"`
	MaxMembers            *int   `validate:"required,min=1"`
	IsPublic              *bool
}

// UpdateGroupInput is a partial update: nil fields are left unchanged.
type UpdateGroupInput struct {
	Name                  *string `validate:"omitnil,min=1,max=100"`
	Description           *string `validate:"omitnil,max=1000"`
	TargetAmount          *string
	ContributionAmount    *string
	ContributionFrequency *string `validate:"omitnil,oneof=daily weekly monthly"`
	MaxMembers            *int    `validate:"omitnil,min=1"`
	IsPublic              *bool
	Status                *string `validate:"omitnil,oneof=active completed cancelled"`
}

// GroupDetail is a group together with the figures derived for one viewer.
type GroupDetail struct {
	Group  *models.Group
	Totals calculator.Totals
	// UserSavings is the viewer's own net balance in the group.
	UserSavings decimal.Decimal
	MemberCount int
	// Role is the viewer's active role, empty when not a member.
	Role models.MemberRole
	// Members is only filled for active members.
	Members []*Member
	// PendingWithdrawals is only counted for group admins.
	PendingWithdrawals int
}

// CreateGroup creates an active group and makes the actor its admin in the
// same unit of work. Private groups receive a fresh join code.
func (s *Service) CreateGroup(ctx context.Context, actor Actor, in CreateGroupInput) (*models.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	target, err := parseAmount("targetAmount", in.TargetAmount)
	if err != nil {
		return nil, err
	}
	contribution, err := parseAmount("contributionAmount", in.ContributionAmount)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:                  in.Name,
		Description:           strings.TrimSpace(in.Description),
		TargetAmount:          target,
		ContributionAmount:    contribution,
		ContributionFrequency: models.Frequency(in.ContributionFrequency),
		MaxMembers:            *in.MaxMembers,
		IsPublic:              in.IsPublic == nil || *in.IsPublic,
		Status:                models.GroupActive,
		CreatorID:             actor.UserID,
	}

	err = s.store.WithTx(ctx, func(tx storage.Repos) error {
		if !group.IsPublic {
			code, err := newJoinCode(ctx, tx, "")
			if err != nil {
				return err
			}
			group.JoinCode = code
		}

		if err := tx.CreateGroup(ctx, group); err != nil {
			return err
		}

		return tx.CreateMembership(ctx, &models.Membership{
			GroupID:  group.ID,
			UserID:   actor.UserID,
			Role:     models.MemberRoleAdmin,
			IsActive: true,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Group created", "group_id", group.ID, "user_id", actor.UserID, "is_public", group.IsPublic)
	return group, nil
}

// UpdateGroup applies a partial update. Only active group admins may update.
// Switching a public group to private issues a new join code; switching back
// clears it.
func (s *Service) UpdateGroup(ctx context.Context, actor Actor, groupID string, in UpdateGroupInput) (*models.Group, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var target, contribution *decimal.Decimal
	if in.TargetAmount != nil {
		v, err := parseAmount("targetAmount", *in.TargetAmount)
		if err != nil {
			return nil, err
		}
		target = &v
	}
	if in.ContributionAmount != nil {
		v, err := parseAmount("contributionAmount", *in.ContributionAmount)
		if err != nil {
			return nil, err
		}
		contribution = &v
	}

	var group *models.Group
	err := s.store.WithTx(ctx, func(tx storage.Repos) error {
		var err error
		group, err = tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, actor, groupID, models.MemberRoleAdmin); err != nil {
			return err
		}

		if in.Name != nil {
			group.Name = *in.Name
		}
		if in.Description != nil {
			group.Description = strings.TrimSpace(*in.Description)
		}
		if target != nil {
			group.TargetAmount = *target
		}
		if contribution != nil {
			group.ContributionAmount = *contribution
		}
		if in.ContributionFrequency != nil {
			group.ContributionFrequency = models.Frequency(*in.ContributionFrequency)
		}
		if in.MaxMembers != nil {
			active, err := tx.CountActiveMembers(ctx, groupID)
			if err != nil {
				return err
			}
			if *in.MaxMembers < active {
				return fmt.Errorf("%w: maxMembers cannot be below the current member count %d", ErrInvalidField, active)
			}
			group.MaxMembers = *in.MaxMembers
		}
		if in.Status != nil {
			group.Status = models.GroupStatus(*in.Status)
		}
		if in.IsPublic != nil && *in.IsPublic != group.IsPublic {
			group.IsPublic = *in.IsPublic
			if group.IsPublic {
				group.JoinCode = ""
			} else {
				code, err := newJoinCode(ctx, tx, group.JoinCode)
				if err != nil {
					return err
				}
				group.JoinCode = code
			}
		}

		return tx.UpdateGroup(ctx, group)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Group updated", "group_id", groupID, "user_id", actor.UserID)
	return group, nil
}

// GetGroup returns a group with the actor's view of it. Private groups are
// visible only to their active members and to system admins.
func (s *Service) GetGroup(ctx context.Context, actor Actor, groupID string) (*GroupDetail, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	membership, err := activeMembership(ctx, s.store, groupID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if membership == nil && !group.IsPublic && !actor.IsSystemAdmin() {
		return nil, fmt.Errorf("%w: group %s is private", ErrForbidden, groupID)
	}

	detail, err := s.groupDetail(ctx, group, actor, membership)
	if err != nil {
		return nil, err
	}

	if membership != nil {
		detail.Members, err = s.members(ctx, groupID)
		if err != nil {
			return nil, err
		}
	}

	return detail, nil
}

// ListMyGroups returns every group the actor is an active member of.
func (s *Service) ListMyGroups(ctx context.Context, actor Actor) ([]*GroupDetail, error) {
	memberships, err := s.store.ListUserMemberships(ctx, actor.UserID, true)
	if err != nil {
		return nil, err
	}

	details := make([]*GroupDetail, 0, len(memberships))
	for _, m := range memberships {
		group, err := s.store.GetGroup(ctx, m.GroupID)
		if err != nil {
			return nil, err
		}
		detail, err := s.groupDetail(ctx, group, actor, m)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}

	return details, nil
}

// ListAvailableGroups returns public active groups in which the actor has
// never held a membership, active or not.
func (s *Service) ListAvailableGroups(ctx context.Context, actor Actor) ([]*models.Group, error) {
	groups, err := s.store.ListPublicActiveGroups(ctx)
	if err != nil {
		return nil, err
	}

	memberships, err := s.store.ListUserMemberships(ctx, actor.UserID, false)
	if err != nil {
		return nil, err
	}
	joined := make(map[string]bool, len(memberships))
	for _, m := range memberships {
		joined[m.GroupID] = true
	}

	available := make([]*models.Group, 0, len(groups))
	for _, g := range groups {
		if !joined[g.ID] {
			available = append(available, g)
		}
	}
	return available, nil
}

func (s *Service) groupDetail(ctx context.Context, group *models.Group, actor Actor, membership *models.Membership) (*GroupDetail, error) {
	entries, err := completedEntries(ctx, s.store, storage.TransactionFilter{GroupID: group.ID})
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountActiveMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	detail := &GroupDetail{
		Group:       group,
		Totals:      calculator.Summarize(entries, ""),
		UserSavings: calculator.Balance(entries, actor.UserID),
		MemberCount: count,
	}

	isAdmin := membership != nil && membership.IsAdmin()
	if membership != nil {
		detail.Role = membership.Role
	}
	if isAdmin {
		_, detail.PendingWithdrawals, err = s.store.ListTransactions(ctx, storage.TransactionFilter{
			GroupID: group.ID,
			Type:    models.TypeWithdrawal,
			Status:  models.StatusPending,
			Limit:   1,
		})
		if err != nil {
			return nil, err
		}
	}

	// The join code is shared by admins, so only they see it.
	if !isAdmin && !actor.IsSystemAdmin() && group.JoinCode != "" {
		redacted := *group
		redacted.JoinCode = ""
		detail.Group = &redacted
	}

	return detail, nil
}
