package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/quantpipeline/tradingagent/internal/domain"
)

// SQLStore is a Postgres-backed CheckpointStore via bun, for deployments
// where a checkpoint must survive a process restart. Grounded on the
// teacher's repository-over-bun.DB shape (storage/service_key_repository.go):
// one struct wrapping *bun.DB, one method per CRUD verb, upsert via
// NewInsert().On("CONFLICT ...").
type SQLStore struct {
	db *bun.DB
}

// OpenSQLStore connects to dsn (a postgres:// URL) and ensures the
// backing table exists.
func OpenSQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("checkpoint: connect: %w", err)
	}

	store := &SQLStore{db: db}
	if err := store.migrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an already-open *bun.DB, for callers that manage
// their own connection pool.
func NewSQLStore(db *bun.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*checkpointModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *SQLStore) Save(ctx context.Context, cp *domain.WorkflowCheckpoint) error {
	payload, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}

	row := &checkpointModel{
		WorkflowID:         cp.WorkflowID,
		LastCompletedStage: string(cp.LastCompletedStage),
		Payload:            payload,
		UpdatedAt:          time.Now().UTC(),
	}

	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (workflow_id) DO UPDATE").
		Set("last_completed_stage = EXCLUDED.last_completed_stage").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkpoint: save: %w", err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, workflowID string) (*domain.WorkflowCheckpoint, error) {
	row := new(checkpointModel)
	err := s.db.NewSelect().Model(row).Where("wc.workflow_id = ?", workflowID).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("checkpoint: load: %w", err)
	}

	var cp domain.WorkflowCheckpoint
	if err := json.Unmarshal(row.Payload, &cp); err != nil {
		return nil, fmt.Errorf("checkpoint: unmarshal: %w", err)
	}
	return &cp, nil
}

func (s *SQLStore) Clear(ctx context.Context, workflowID string) error {
	_, err := s.db.NewDelete().Model((*checkpointModel)(nil)).Where("workflow_id = ?", workflowID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("checkpoint: clear: %w", err)
	}
	return nil
}
