package groups

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore implements the group and membership index on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateGroup creates a new group. The ID is generated when empty.
func (s *PostgresStore) CreateGroup(ctx context.Context, group *Group) error {
	if group.Name == "" {
		return fmt.Errorf("group name is required")
	}
	if group.ID == "" {
		group.ID = uuid.NewString()
	}

	query := `
		INSERT INTO groups (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query, group.ID, group.Name, group.Description).
		Scan(&group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *PostgresStore) GetGroup(ctx context.Context, id string) (*Group, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM groups
		WHERE id = $1
	`
	group := &Group{}
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID, &group.Name, &description, &group.CreatedAt, &group.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if description.Valid {
		group.Description = description.String
	}
	return group, nil
}

// GroupByName retrieves a group by its unique name. Returns nil when the
// group does not exist.
func (s *PostgresStore) GroupByName(ctx context.Context, name string) (*Group, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM groups
		WHERE name = $1
	`
	group := &Group{}
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&group.ID, &group.Name, &description, &group.CreatedAt, &group.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by name: %w", err)
	}
	if description.Valid {
		group.Description = description.String
	}
	return group, nil
}

// ListGroups retrieves all groups ordered by name.
func (s *PostgresStore) ListGroups(ctx context.Context) ([]*Group, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM groups
		ORDER BY name ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var result []*Group
	for rows.Next() {
		group := &Group{}
		var description sql.NullString
		if err := rows.Scan(&group.ID, &group.Name, &description, &group.CreatedAt, &group.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		if description.Valid {
			group.Description = description.String
		}
		result = append(result, group)
	}
	return result, rows.Err()
}

// DeleteGroup removes a group and its memberships.
func (s *PostgresStore) DeleteGroup(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("group not found")
	}
	return nil
}

// UpsertMembership creates or updates a user's membership in a group.
func (s *PostgresStore) UpsertMembership(ctx context.Context, m *Membership) error {
	if !m.Role.Valid() {
		return fmt.Errorf("invalid role %q", m.Role)
	}
	if m.RequestedAt.IsZero() {
		m.RequestedAt = time.Now()
	}

	query := `
		INSERT INTO group_members (user_id, group_id, role, request_status, requested_at, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, group_id) DO UPDATE
		SET role = EXCLUDED.role, request_status = EXCLUDED.request_status, decided_at = EXCLUDED.decided_at
	`
	_, err := s.db.ExecContext(ctx, query, m.UserID, m.GroupID, m.Role, m.RequestStatus, m.RequestedAt, m.DecidedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}
	return nil
}

// ListAcceptedMemberships returns all ACCEPTED memberships for a user.
func (s *PostgresStore) ListAcceptedMemberships(ctx context.Context, userID string) ([]Membership, error) {
	query := `
		SELECT user_id, group_id, role, request_status, requested_at, decided_at
		FROM group_members
		WHERE user_id = $1 AND request_status = $2
		ORDER BY group_id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, RequestAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var result []Membership
	for rows.Next() {
		var m Membership
		var decidedAt sql.NullTime
		if err := rows.Scan(&m.UserID, &m.GroupID, &m.Role, &m.RequestStatus, &m.RequestedAt, &decidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		if decidedAt.Valid {
			t := decidedAt.Time
			m.DecidedAt = &t
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// ListGroupMemberships returns every membership of a group, any status.
func (s *PostgresStore) ListGroupMemberships(ctx context.Context, groupID string) ([]Membership, error) {
	query := `
		SELECT user_id, group_id, role, request_status, requested_at, decided_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY user_id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group memberships: %w", err)
	}
	defer rows.Close()

	var result []Membership
	for rows.Next() {
		var m Membership
		var decidedAt sql.NullTime
		if err := rows.Scan(&m.UserID, &m.GroupID, &m.Role, &m.RequestStatus, &m.RequestedAt, &decidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		if decidedAt.Valid {
			t := decidedAt.Time
			m.DecidedAt = &t
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// AddEntityToGroup registers an entity's meta ID with a group. Adding an
// already-registered pair is a no-op.
func (s *PostgresStore) AddEntityToGroup(ctx context.Context, metaID, groupID string) error {
	query := `
		INSERT INTO entity_groups (meta_id, group_id)
		VALUES ($1, $2)
		ON CONFLICT (meta_id, group_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, metaID, groupID)
	if err != nil {
		return fmt.Errorf("failed to add entity to group: %w", err)
	}
	return nil
}

// EntityGroups returns the group IDs an entity is registered with.
func (s *PostgresStore) EntityGroups(ctx context.Context, metaID string) ([]string, error) {
	query := `
		SELECT group_id FROM entity_groups
		WHERE meta_id = $1
		ORDER BY group_id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, metaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity groups: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var groupID string
		if err := rows.Scan(&groupID); err != nil {
			return nil, fmt.Errorf("failed to scan entity group: %w", err)
		}
		result = append(result, groupID)
	}
	return result, rows.Err()
}

// ListAdminUserIDs returns the IDs of system-wide admin users.
func (s *PostgresStore) ListAdminUserIDs(ctx context.Context) ([]string, error) {
	query := `SELECT id FROM users WHERE is_admin = TRUE ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin users: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		result = append(result, id)
	}
	return result, rows.Err()
}
