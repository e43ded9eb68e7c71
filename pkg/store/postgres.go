package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/curation-works/metacat/pkg/catalog"
)

// Schema creates the entities table. Column types are kept portable so
// the same statements run on SQLite in tests.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
	instance_id         TEXT PRIMARY KEY,
	meta_id             TEXT NOT NULL,
	uid                 TEXT NOT NULL DEFAULT '',
	kind                TEXT NOT NULL,
	status              TEXT NOT NULL,
	editor_id           TEXT NOT NULL DEFAULT '',
	group_ids           TEXT NOT NULL DEFAULT '[]',
	instance_changed_id TEXT NOT NULL DEFAULT '',
	provenance          TEXT NOT NULL DEFAULT '',
	payload             TEXT NOT NULL DEFAULT 'null',
	linked              TEXT NOT NULL DEFAULT '[]',
	created_at          TIMESTAMP NOT NULL,
	updated_at          TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entities_meta_id ON entities (meta_id);
CREATE INDEX IF NOT EXISTS idx_entities_status ON entities (status);
`

const entityColumns = `instance_id, meta_id, uid, kind, status, editor_id, group_ids,
	instance_changed_id, provenance, payload, linked, created_at, updated_at`

// PostgresStore persists entity versions in a relational database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store over an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the entities table when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create entities schema: %w", err)
	}
	return nil
}

// Retrieve returns one version by instance ID, (nil, nil) when absent.
func (s *PostgresStore) Retrieve(ctx context.Context, instanceID string) (*catalog.MetadataEntity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE instance_id = $1`, instanceID)

	entity, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve entity: %w", err)
	}
	return entity, nil
}

// RetrieveAll returns every stored version.
func (s *PostgresStore) RetrieveAll(ctx context.Context) ([]*catalog.MetadataEntity, error) {
	return s.query(ctx, `SELECT `+entityColumns+` FROM entities ORDER BY meta_id, created_at`)
}

// RetrieveAllWithStatus returns every version in the given status.
func (s *PostgresStore) RetrieveAllWithStatus(ctx context.Context, status catalog.Status) ([]*catalog.MetadataEntity, error) {
	return s.query(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE status = $1 ORDER BY meta_id, created_at`,
		string(status))
}

// RetrieveByMetaID returns every version of one logical entity.
func (s *PostgresStore) RetrieveByMetaID(ctx context.Context, metaID string) ([]*catalog.MetadataEntity, error) {
	return s.query(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE meta_id = $1 ORDER BY created_at`,
		metaID)
}

// Upsert stores a version, replacing any existing row with the same
// instance ID.
func (s *PostgresStore) Upsert(ctx context.Context, entity *catalog.MetadataEntity) (catalog.EntityRef, error) {
	groupsJSON, err := json.Marshal(entity.Groups)
	if err != nil {
		return catalog.EntityRef{}, fmt.Errorf("failed to encode groups: %w", err)
	}
	linkedJSON, err := json.Marshal(entity.Linked)
	if err != nil {
		return catalog.EntityRef{}, fmt.Errorf("failed to encode linked refs: %w", err)
	}
	payload := entity.Payload
	if payload == nil {
		payload = json.RawMessage("null")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (`+entityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (instance_id) DO UPDATE SET
			meta_id = EXCLUDED.meta_id,
			uid = EXCLUDED.uid,
			kind = EXCLUDED.kind,
			status = EXCLUDED.status,
			editor_id = EXCLUDED.editor_id,
			group_ids = EXCLUDED.group_ids,
			instance_changed_id = EXCLUDED.instance_changed_id,
			provenance = EXCLUDED.provenance,
			payload = EXCLUDED.payload,
			linked = EXCLUDED.linked,
			updated_at = EXCLUDED.updated_at`,
		entity.InstanceID, entity.MetaID, entity.UID, string(entity.Kind), string(entity.Status),
		entity.EditorID, string(groupsJSON), entity.InstanceChangedID, entity.Provenance,
		string(payload), string(linkedJSON), entity.CreatedAt, entity.UpdatedAt)
	if err != nil {
		return catalog.EntityRef{}, fmt.Errorf("failed to upsert entity: %w", err)
	}
	return entity.Ref(), nil
}

// Delete removes one version. It reports false when the version was
// already absent.
func (s *PostgresStore) Delete(ctx context.Context, instanceID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE instance_id = $1`, instanceID)
	if err != nil {
		return false, fmt.Errorf("failed to delete entity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...interface{}) ([]*catalog.MetadataEntity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []*catalog.MetadataEntity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entities: %w", err)
	}
	return entities, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(row rowScanner) (*catalog.MetadataEntity, error) {
	var (
		entity     catalog.MetadataEntity
		kind       string
		status     string
		groupsJSON string
		payload    string
		linkedJSON string
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := row.Scan(&entity.InstanceID, &entity.MetaID, &entity.UID, &kind, &status,
		&entity.EditorID, &groupsJSON, &entity.InstanceChangedID, &entity.Provenance,
		&payload, &linkedJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	entity.Kind = catalog.Kind(kind)
	entity.Status = catalog.Status(status)
	entity.CreatedAt = createdAt
	entity.UpdatedAt = updatedAt
	if err := json.Unmarshal([]byte(groupsJSON), &entity.Groups); err != nil {
		return nil, fmt.Errorf("corrupt group_ids column for %s: %w", entity.InstanceID, err)
	}
	if err := json.Unmarshal([]byte(linkedJSON), &entity.Linked); err != nil {
		return nil, fmt.Errorf("corrupt linked column for %s: %w", entity.InstanceID, err)
	}
	if payload != "null" && payload != "" {
		entity.Payload = json.RawMessage(payload)
	}
	return &entity, nil
}
