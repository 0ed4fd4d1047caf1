package badger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// AuditRepository implements storage.AuditRepository using BadgerDB.
type AuditRepository struct {
	backend  *Backend
	sequence *badger.Sequence
	logger   *slog.Logger
}

var _ storage.AuditRepository = (*AuditRepository)(nil)

// NewAuditRepository creates an audit repository on an open backend.
func NewAuditRepository(backend *Backend) (storage.AuditRepository, error) {
	return newAuditRepository(backend)
}

func newAuditRepository(backend *Backend) (*AuditRepository, error) {
	sequence, err := backend.GetSequence(logSequenceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit sequence: %w", err)
	}
	return &AuditRepository{
		backend:  backend,
		sequence: sequence,
		logger:   slog.Default().With("component", "badger-audit"),
	}, nil
}

// Close releases the ID sequence. The shared backend is closed by its owner.
func (r *AuditRepository) Close() error {
	if r.backend.IsClosed() {
		return nil
	}
	return r.sequence.Release()
}

// AppendLogRecord appends one record, assigning its ID and CreatedAt.
func (r *AuditRepository) AppendLogRecord(ctx context.Context, record *core.LogRecord) (*core.LogRecord, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if err := core.ValidateLogRecord(record); err != nil {
		return nil, err
	}

	num, err := r.sequence.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to generate log record ID: %w", err)
	}

	stored := *record
	stored.Id = core.ID(num + 1)
	stored.CreatedAt = time.Now().UTC()

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeLogKey(stored.Id), storage.MarshalLogRecord(&stored)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, fmt.Errorf("failed to append log record: %w", err)
	}

	return &stored, nil
}

// RecentLogRecords returns up to limit records, most recent first. Log keys
// embed the ID big-endian, so a reverse prefix iteration yields them in order.
func (r *AuditRepository) RecentLogRecords(ctx context.Context, limit int) ([]*core.LogRecord, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if limit <= 0 {
		return []*core.LogRecord{}, nil
	}

	records := []*core.LogRecord{}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(logKeyPrefix)

		it := tx.NewIterator(opts)
		defer it.Close()

		// Seek past the last possible key under the prefix so the reverse
		// iteration starts at the newest record.
		seek := append([]byte(logKeyPrefix), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for it.Seek(seek); it.Valid() && len(records) < limit; it.Next() {
			var record *core.LogRecord
			err := it.Item().Value(func(value []byte) error {
				var err error
				record, err = storage.UnmarshalLogRecord(value)
				return err
			})
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
			}
			records = append(records, record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}
