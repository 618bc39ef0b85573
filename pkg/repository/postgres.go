package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carewatch/stewardship/pkg/logger"
	"github.com/carewatch/stewardship/pkg/types"
)

// PostgresSnapshotStore persists one snapshot document per facility in a
// single JSONB column. The whole snapshot is read and written as a unit,
// matching the document semantics the engines expect.
type PostgresSnapshotStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewPostgresSnapshotStore creates a new postgres-backed snapshot store
func NewPostgresSnapshotStore(db *sql.DB, log *logger.Logger) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db, logger: log}
}

// Load retrieves the snapshot document for a facility. A facility with no
// stored snapshot gets a fresh empty one rather than an error; first save
// creates the row.
func (s *PostgresSnapshotStore) Load(ctx context.Context, facilityID string) (*types.Snapshot, error) {
	query := `
		SELECT document
		FROM facility_snapshots
		WHERE facility_id = $1`

	var doc []byte
	err := s.db.QueryRowContext(ctx, query, facilityID).Scan(&doc)
	if err == sql.ErrNoRows {
		return types.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for facility %s: %w", facilityID, err)
	}

	var snap types.Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to decode stored snapshot", err)
	}

	s.logger.WithField("facility_id", facilityID).Debug("Snapshot loaded")
	return &snap, nil
}

// Save upserts the snapshot document for a facility. Last write wins.
func (s *PostgresSnapshotStore) Save(ctx context.Context, facilityID string, snap *types.Snapshot) error {
	if snap == nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "snapshot is nil", nil)
	}

	doc, err := json.Marshal(snap)
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to encode snapshot", err)
	}

	query := `
		INSERT INTO facility_snapshots (facility_id, document, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (facility_id)
		DO UPDATE SET document = $2, updated_at = $3`

	if _, err := s.db.ExecContext(ctx, query, facilityID, doc, time.Now()); err != nil {
		return fmt.Errorf("failed to save snapshot for facility %s: %w", facilityID, err)
	}

	s.logger.WithField("facility_id", facilityID).Debug("Snapshot saved")
	return nil
}
