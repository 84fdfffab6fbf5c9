package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
	"github.com/joseph-ayodele/ipqc-tracker/internal/entity"
	"github.com/joseph-ayodele/ipqc-tracker/internal/reconcile"
)

// SQLiteRepository stores forms in a local SQLite file.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteRepository opens the database at path in WAL mode.
func NewSQLiteRepository(path string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return nil, common.NewAppError(common.CodeConfig, "sqlite path is empty", common.ErrInvalidInput)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "sqlite open", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, common.NewAppError(common.CodeDatabase, "sqlite "+pragma, err)
		}
	}
	return &SQLiteRepository{db: db, logger: logger}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS forms (
	id           TEXT PRIMARY KEY,
	checklist_id TEXT NOT NULL UNIQUE,
	status       TEXT NOT NULL,
	header       TEXT NOT NULL,
	checkpoints  TEXT NOT NULL,
	report       TEXT NOT NULL DEFAULT '[]',
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS form_activity (
	id           TEXT PRIMARY KEY,
	checklist_id TEXT NOT NULL REFERENCES forms(checklist_id) ON DELETE CASCADE,
	action       TEXT NOT NULL,
	detail       TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_forms_status ON forms(status);
CREATE INDEX IF NOT EXISTS idx_form_activity_checklist ON form_activity(checklist_id);
`

func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return common.NewAppError(common.CodeDatabase, "sqlite migrate", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error { return r.db.Close() }

func (r *SQLiteRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *SQLiteRepository) SaveForm(ctx context.Context, form *entity.Form, report *reconcile.Report) error {
	row, err := toRow(form, report)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO forms (id, checklist_id, status, header, checkpoints, report, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(checklist_id) DO UPDATE SET
	status = excluded.status,
	header = excluded.header,
	checkpoints = excluded.checkpoints,
	report = excluded.report,
	updated_at = excluded.updated_at`,
		row.ID, row.ChecklistID, row.Status, string(row.Header), string(row.Checkpoints), string(row.Report),
		formatTime(row.CreatedAt), formatTime(row.UpdatedAt),
	)
	if err != nil {
		r.logger.Error("failed to save form", "checklist_id", form.ChecklistID, "error", err)
		return common.NewAppError(common.CodeDatabase, "save form "+form.ChecklistID, err)
	}
	r.logger.Info("store.form.saved", "checklist_id", form.ChecklistID, "status", form.Status)
	return nil
}

func (r *SQLiteRepository) LoadForm(ctx context.Context, checklistID string) (*entity.Form, *reconcile.Report, error) {
	var (
		row                  formRow
		header, cps, rep     string
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, checklist_id, status, header, checkpoints, report, created_at, updated_at FROM forms WHERE checklist_id = ?`,
		checklistID,
	).Scan(&row.ID, &row.ChecklistID, &row.Status, &header, &cps, &rep, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, common.NotFoundf("form %s", checklistID)
	}
	if err != nil {
		return nil, nil, common.NewAppError(common.CodeDatabase, "load form "+checklistID, err)
	}
	row.Header, row.Checkpoints, row.Report = []byte(header), []byte(cps), []byte(rep)
	if row.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, nil, err
	}
	if row.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, nil, err
	}
	return row.toForm()
}

func (r *SQLiteRepository) ListForms(ctx context.Context, f ListFilter) ([]FormSummary, error) {
	q := `SELECT id, checklist_id, status, header, updated_at FROM forms`
	var args []any
	if f.Status != "" {
		q += ` WHERE status = ?`
		args = append(args, string(f.Status))
	}
	q += ` ORDER BY updated_at DESC, checklist_id`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "list forms", err)
	}
	defer rows.Close()

	var out []FormSummary
	for rows.Next() {
		var id, cid, status, header, updatedAt string
		if err := rows.Scan(&id, &cid, &status, &header, &updatedAt); err != nil {
			return nil, common.NewAppError(common.CodeDatabase, "scan form", err)
		}
		ts, err := parseTime(updatedAt)
		if err != nil {
			return nil, err
		}
		s, err := summaryFromRow(id, cid, status, []byte(header), ts)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) LogActivity(ctx context.Context, checklistID, action, detail string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO form_activity (id, checklist_id, action, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), checklistID, action, detail, formatTime(time.Now()),
	)
	if err != nil {
		return common.NewAppError(common.CodeDatabase, "log activity for "+checklistID, err)
	}
	r.logger.Debug("store.activity.logged", "checklist_id", checklistID, "action", action)
	return nil
}

func (r *SQLiteRepository) ListActivity(ctx context.Context, checklistID string) ([]Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, checklist_id, action, detail, created_at FROM form_activity WHERE checklist_id = ? ORDER BY created_at, rowid`,
		checklistID,
	)
	if err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "list activity", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		var id, createdAt string
		if err := rows.Scan(&id, &a.ChecklistID, &a.Action, &a.Detail, &createdAt); err != nil {
			return nil, common.NewAppError(common.CodeDatabase, "scan activity", err)
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse activity id %q: %w", id, err)
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Timestamps are stored as RFC 3339 text so they sort lexically.
// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
