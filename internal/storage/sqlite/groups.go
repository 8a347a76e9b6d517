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

const groupColumns = `id, name, description, target_amount, contribution_amount, contribution_frequency,
	max_members, is_public, join_code, status, creator_id, created_at, updated_at`

func scanGroup(row rowScanner) (*models.Group, error) {
	group := &models.Group{}
	var joinCode sql.NullString
	err := row.Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.TargetAmount,
		&group.ContributionAmount,
		&group.ContributionFrequency,
		&group.MaxMembers,
		&group.IsPublic,
		&joinCode,
		&group.Status,
		&group.CreatorID,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if joinCode.Valid {
		group.JoinCode = joinCode.String
	}
	return group, nil
}

func (r *repos) listGroups(ctx context.Context, query string, args ...any) ([]*models.Group, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	return groups, nil
}

// CreateGroup persists a new group to the database.
func (r *repos) CreateGroup(ctx context.Context, group *models.Group) error {
	// Generate ID if not set
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if group.CreatedAt == 0 {
		group.CreatedAt = now
	}
	if group.UpdatedAt == 0 {
		group.UpdatedAt = group.CreatedAt
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.Description, group.TargetAmount, group.ContributionAmount,
		string(group.ContributionFrequency), group.MaxMembers, group.IsPublic, nullString(group.JoinCode),
		string(group.Status), group.CreatorID, group.CreatedAt, group.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	return nil
}

// GetGroup retrieves a group by ID.
func (r *repos) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := scanGroup(r.q.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = ?`, groupID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// GetGroupByJoinCode retrieves the group holding the given join code.
func (r *repos) GetGroupByJoinCode(ctx context.Context, code string) (*models.Group, error) {
	group, err := scanGroup(r.q.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE join_code = ? ORDER BY created_at DESC LIMIT 1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("group with join code", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by join code: %w", err)
	}
	return group, nil
}

// UpdateGroup overwrites the mutable fields of an existing group.
func (r *repos) UpdateGroup(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().Unix()

	result, err := r.q.ExecContext(ctx,
		`UPDATE groups SET name = ?, description = ?, target_amount = ?, contribution_amount = ?,
			contribution_frequency = ?, max_members = ?, is_public = ?, join_code = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		group.Name, group.Description, group.TargetAmount, group.ContributionAmount,
		string(group.ContributionFrequency), group.MaxMembers, group.IsPublic, nullString(group.JoinCode),
		string(group.Status), group.UpdatedAt, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("group", group.ID)
	}

	return nil
}

// JoinCodeExists reports whether any group already uses code.
func (r *repos) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	n, err := r.count(ctx, `SELECT COUNT(*) FROM groups WHERE join_code = ?`, code)
	if err != nil {
		return false, fmt.Errorf("failed to check join code: %w", err)
	}
	return n > 0, nil
}

// ListPublicActiveGroups returns every public group that is still active.
func (r *repos) ListPublicActiveGroups(ctx context.Context) ([]*models.Group, error) {
	return r.listGroups(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE is_public = 1 AND status = ? ORDER BY created_at DESC, rowid DESC`,
		string(models.GroupActive))
}

// ListRecentGroups returns the newest groups.
func (r *repos) ListRecentGroups(ctx context.Context, limit int) ([]*models.Group, error) {
	return r.listGroups(ctx,
		`SELECT `+groupColumns+` FROM groups ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

// CountGroups returns the number of groups.
func (r *repos) CountGroups(ctx context.Context) (int, error) {
	n, err := r.count(ctx, `SELECT COUNT(*) FROM groups`)
	if err != nil {
		return 0, fmt.Errorf("failed to count groups: %w", err)
	}
	return n, nil
}
