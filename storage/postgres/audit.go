package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

const logTable = "query_logs"

// AuditRepository implements storage.AuditRepository on PostgreSQL.
type AuditRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.AuditRepository = (*AuditRepository)(nil)

// NewAuditRepository creates an audit repository and ensures its table exists.
func NewAuditRepository(ctx context.Context, backend *Backend) (storage.AuditRepository, error) {
	r := &AuditRepository{
		backend: backend,
		logger:  slog.Default().With("component", "postgres-audit"),
	}
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *AuditRepository) ensureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, logTable)
	if _, err := r.backend.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure audit table: %w", err)
	}
	return nil
}

// Close is a no-op; the shared backend owns the connection pool.
func (r *AuditRepository) Close() error {
	return nil
}

// AppendLogRecord appends one record, assigning its ID and CreatedAt.
func (r *AuditRepository) AppendLogRecord(ctx context.Context, record *core.LogRecord) (*core.LogRecord, error) {
	if err := core.ValidateLogRecord(record); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (question, answer, source) VALUES ($1, $2, $3) RETURNING id, created_at`,
		logTable)

	stored := *record
	var id int64
	var createdAt time.Time
	err := r.backend.db.QueryRowxContext(ctx, query,
		stored.Question, stored.Answer, stored.Source.String()).
		Scan(&id, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append log record: %w", err)
	}
	stored.Id = core.ID(id)
	stored.CreatedAt = createdAt
	return &stored, nil
}

// RecentLogRecords returns up to limit records, most recent first.
func (r *AuditRepository) RecentLogRecords(ctx context.Context, limit int) ([]*core.LogRecord, error) {
	if limit <= 0 {
		return []*core.LogRecord{}, nil
	}

	query := fmt.Sprintf(
		`SELECT id, question, answer, source, created_at FROM %s ORDER BY id DESC LIMIT $1`,
		logTable)

	rows, err := r.backend.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query log records: %w", err)
	}
	defer rows.Close()

	records := []*core.LogRecord{}
	for rows.Next() {
		var (
			id        int64
			question  string
			answer    string
			label     string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &question, &answer, &label, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		source, err := core.ParseAnswerSource(label)
		if err != nil {
			return nil, fmt.Errorf("failed to parse source %q: %w", label, err)
		}
		records = append(records, &core.LogRecord{
			Id:        core.ID(id),
			Question:  question,
			Answer:    answer,
			Source:    source,
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate log rows: %w", err)
	}
	return records, nil
}
