package savings

import (
	"context"
	"fmt"
	"strings"

	"github.com/Iamregulus/Group-savings-app/internal/models"
	"github.com/Iamregulus/Group-savings-app/internal/storage"
)

// Member is an active membership joined with the member's profile.
type Member struct {
	UserID      string
	DisplayName string
	Email       string
	Role        models.MemberRole
	JoinedAt    int64
}

// JoinGroup adds the actor to a group. A private group requires its exact
// join code. A previously deactivated membership is reactivated, as a plain
// member and without the code, instead of creating a second row.
func (s *Service) JoinGroup(ctx context.Context, actor Actor, groupID, joinCode string) (*models.Membership, error) {
	var membership *models.Membership
	err := s.store.WithTx(ctx, func(tx storage.Repos) error {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		membership, err = join(ctx, tx, group, actor.UserID, strings.TrimSpace(joinCode))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Member joined group", "group_id", groupID, "user_id", actor.UserID)
	return membership, nil
}

// JoinByCode resolves a private group by its join code and joins it. Codes
// of groups that are no longer active resolve to ErrNotFound.
func (s *Service) JoinByCode(ctx context.Context, actor Actor, joinCode string) (*models.Membership, error) {
	code := strings.ToUpper(strings.TrimSpace(joinCode))
	if code == "" {
		return nil, fmt.Errorf("%w: joinCode", ErrMissingField)
	}

	var membership *models.Membership
	err := s.store.WithTx(ctx, func(tx storage.Repos) error {
		group, err := tx.GetGroupByJoinCode(ctx, code)
		if err != nil {
			return err
		}
		if !group.IsActive() {
			return fmt.Errorf("%w: no active group with join code %s", ErrNotFound, code)
		}
		membership, err = join(ctx, tx, group, actor.UserID, code)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Member joined group by code", "group_id", membership.GroupID, "user_id", actor.UserID)
	return membership, nil
}

// join checks, in order: group active, capacity, existing membership (active
// fails, inactive is reactivated), then the join code of a private group.
func join(ctx context.Context, tx storage.Repos, group *models.Group, userID, joinCode string) (*models.Membership, error) {
	if !group.IsActive() {
		return nil, fmt.Errorf("%w: group %s is %s", ErrNotAcceptingMembers, group.ID, group.Status)
	}

	count, err := tx.CountActiveMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	if count >= group.MaxMembers {
		return nil, fmt.Errorf("%w: group %s has %d of %d members", ErrGroupFull, group.ID, count, group.MaxMembers)
	}

	existing, err := tx.GetMembership(ctx, group.ID, userID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if existing != nil {
		if existing.IsActive {
			return nil, fmt.Errorf("%w: group %s", ErrAlreadyMember, group.ID)
		}
		// Former members come back without the join code.
		existing.IsActive = true
		existing.Role = models.MemberRoleMember
		if err := tx.UpdateMembership(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	if !group.IsPublic && joinCode != group.JoinCode {
		return nil, fmt.Errorf("%w: group %s", ErrInvalidJoinCode, group.ID)
	}

	m := &models.Membership{
		GroupID:  group.ID,
		UserID:   userID,
		Role:     models.MemberRoleMember,
		IsActive: true,
	}
	if err := tx.CreateMembership(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// LeaveGroup deactivates the actor's membership. The last active admin of a
// group cannot leave.
func (s *Service) LeaveGroup(ctx context.Context, actor Actor, groupID string) error {
	err := s.store.WithTx(ctx, func(tx storage.Repos) error {
		m, err := activeMembership(ctx, tx, groupID, actor.UserID)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("%w: group %s", ErrNotAMember, groupID)
		}

		if m.Role == models.MemberRoleAdmin {
			admins, err := tx.CountActiveAdmins(ctx, groupID)
			if err != nil {
				return err
			}
			if admins == 1 {
				return fmt.Errorf("%w: group %s", ErrSoleAdmin, groupID)
			}
		}

		m.IsActive = false
		return tx.UpdateMembership(ctx, m)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Member left group", "group_id", groupID, "user_id", actor.UserID)
	return nil
}

// ListMembers returns the active members of a group. Visible to active
// members and system admins.
func (s *Service) ListMembers(ctx context.Context, actor Actor, groupID string) ([]*Member, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if !actor.IsSystemAdmin() {
		if _, err := authorize(ctx, s.store, actor, groupID, models.MemberRoleMember); err != nil {
			return nil, err
		}
	}
	return s.members(ctx, groupID)
}

func (s *Service) members(ctx context.Context, groupID string) ([]*Member, error) {
	memberships, err := s.store.ListActiveMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(memberships))
	for i, m := range memberships {
		ids[i] = m.UserID
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	members := make([]*Member, 0, len(memberships))
	for _, m := range memberships {
		member := &Member{UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt}
		if u, ok := users[m.UserID]; ok {
			member.DisplayName = u.DisplayName
			member.Email = u.Email
		}
		members = append(members, member)
	}
	return members, nil
}
