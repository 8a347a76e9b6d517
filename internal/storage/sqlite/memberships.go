package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Iamregulus/Group-savings-app/internal/models"
)

const membershipColumns = `id, group_id, user_id, role, is_active, joined_at`

func scanMembership(row rowScanner) (*models.Membership, error) {
	m := &models.Membership{}
	err := row.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.IsActive, &m.JoinedAt)
	return m, err
}

func (r *repos) listMemberships(ctx context.Context, query string, args ...any) ([]*models.Membership, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}

	return memberships, nil
}

// CreateMembership inserts a membership row. The (group, user) pair is unique.
func (r *repos) CreateMembership(ctx context.Context, m *models.Membership) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.JoinedAt == 0 {
		m.JoinedAt = time.Now().Unix()
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO group_members (`+membershipColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.GroupID, m.UserID, string(m.Role), m.IsActive, m.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}

	return nil
}

// GetMembership returns the membership of userID in groupID, active or not.
func (r *repos) GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	m, err := scanMembership(r.q.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("membership", groupID+"/"+userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// UpdateMembership writes the role and active flag of an existing membership.
func (r *repos) UpdateMembership(ctx context.Context, m *models.Membership) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE group_members SET role = ?, is_active = ? WHERE id = ?`,
		string(m.Role), m.IsActive, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("membership", m.ID)
	}

	return nil
}

// CountActiveMembers returns the number of active memberships in a group.
func (r *repos) CountActiveMembers(ctx context.Context, groupID string) (int, error) {
	n, err := r.count(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND is_active = 1`, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return n, nil
}

// CountActiveAdmins returns the number of active admin memberships in a group.
func (r *repos) CountActiveAdmins(ctx context.Context, groupID string) (int, error) {
	n, err := r.count(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND role = ? AND is_active = 1`,
		groupID, string(models.MemberRoleAdmin))
	if err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return n, nil
}

// ListActiveMembers returns the active memberships of a group, oldest first.
func (r *repos) ListActiveMembers(ctx context.Context, groupID string) ([]*models.Membership, error) {
	return r.listMemberships(ctx,
		`SELECT `+membershipColumns+` FROM group_members
		 WHERE group_id = ? AND is_active = 1 ORDER BY joined_at, rowid`, groupID)
}

// ListUserMemberships returns the memberships held by a user.
func (r *repos) ListUserMemberships(ctx context.Context, userID string, activeOnly bool) ([]*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM group_members WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY joined_at, rowid`
	return r.listMemberships(ctx, query, userID)
}
