package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
	"github.com/joseph-ayodele/ipqc-tracker/internal/entity"
	"github.com/joseph-ayodele/ipqc-tracker/internal/reconcile"
)

// Pool is the subset of *pgxpool.Pool the repository uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresRepository stores forms in PostgreSQL through pgx.
type PostgresRepository struct {
	pool   Pool
	logger *slog.Logger
}

func NewPostgresRepository(pool Pool, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{pool: pool, logger: logger}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS forms (
	id           TEXT PRIMARY KEY,
	checklist_id TEXT NOT NULL UNIQUE,
	status       TEXT NOT NULL,
	header       JSONB NOT NULL,
	checkpoints  JSONB NOT NULL,
	report       JSONB NOT NULL DEFAULT '[]',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS form_activity (
	id           TEXT PRIMARY KEY,
	checklist_id TEXT NOT NULL REFERENCES forms(checklist_id) ON DELETE CASCADE,
	action       TEXT NOT NULL,
	detail       TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_forms_status ON forms(status);
CREATE INDEX IF NOT EXISTS idx_form_activity_checklist ON form_activity(checklist_id);
`

func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return common.NewAppError(common.CodeDatabase, "postgres migrate", err)
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

func (r *PostgresRepository) Close() error {
	r.logger.Info("closing database connections")
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) SaveForm(ctx context.Context, form *entity.Form, report *reconcile.Report) error {
	row, err := toRow(form, report)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO forms (id, checklist_id, status, header, checkpoints, report, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (checklist_id) DO UPDATE SET
	status = EXCLUDED.status,
	header = EXCLUDED.header,
	checkpoints = EXCLUDED.checkpoints,
	report = EXCLUDED.report,
	updated_at = EXCLUDED.updated_at`,
		row.ID, row.ChecklistID, row.Status, row.Header, row.Checkpoints, row.Report, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to save form", "checklist_id", form.ChecklistID, "error", err)
		return common.NewAppError(common.CodeDatabase, "save form "+form.ChecklistID, err)
	}
	r.logger.Info("store.form.saved", "checklist_id", form.ChecklistID, "status", form.Status)
	return nil
}

func (r *PostgresRepository) LoadForm(ctx context.Context, checklistID string) (*entity.Form, *reconcile.Report, error) {
	var row formRow
	err := r.pool.QueryRow(ctx,
		`SELECT id, checklist_id, status, header, checkpoints, report, created_at, updated_at FROM forms WHERE checklist_id = $1`,
		checklistID,
	).Scan(&row.ID, &row.ChecklistID, &row.Status, &row.Header, &row.Checkpoints, &row.Report, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, common.NotFoundf("form %s", checklistID)
	}
	if err != nil {
		return nil, nil, common.NewAppError(common.CodeDatabase, "load form "+checklistID, err)
	}
	return row.toForm()
}

func (r *PostgresRepository) ListForms(ctx context.Context, f ListFilter) ([]FormSummary, error) {
	q := `SELECT id, checklist_id, status, header, updated_at FROM forms`
	var args []any
	if f.Status != "" {
		args = append(args, string(f.Status))
		q += fmt.Sprintf(` WHERE status = $%d`, len(args))
	}
	q += ` ORDER BY updated_at DESC, checklist_id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "list forms", err)
	}
	defer rows.Close()

	var out []FormSummary
	for rows.Next() {
		var (
			id, cid, status string
			header          []byte
			updatedAt       time.Time
		)
		if err := rows.Scan(&id, &cid, &status, &header, &updatedAt); err != nil {
			return nil, common.NewAppError(common.CodeDatabase, "scan form", err)
		}
		s, err := summaryFromRow(id, cid, status, header, updatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) LogActivity(ctx context.Context, checklistID, action, detail string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO form_activity (id, checklist_id, action, detail, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), checklistID, action, detail, time.Now().UTC(),
	)
	if err != nil {
		return common.NewAppError(common.CodeDatabase, "log activity for "+checklistID, err)
	}
	r.logger.Debug("store.activity.logged", "checklist_id", checklistID, "action", action)
	return nil
}

func (r *PostgresRepository) ListActivity(ctx context.Context, checklistID string) ([]Activity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, checklist_id, action, detail, created_at FROM form_activity WHERE checklist_id = $1 ORDER BY created_at`,
		checklistID,
	)
	if err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "list activity", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		var id string
		if err := rows.Scan(&id, &a.ChecklistID, &a.Action, &a.Detail, &a.CreatedAt); err != nil {
			return nil, common.NewAppError(common.CodeDatabase, "scan activity", err)
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse activity id %q: %w", id, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
