package storage

import (
	"context"

	"github.com/poiesic/docquery/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close closes the storage backend and releases resources.
	// Must be invoked on all exit paths of a process that opens the store.
	Close() error
}

// ChunkRepository owns the document chunks and answers nearest-neighbor
// queries over their embeddings.
type ChunkRepository interface {
	Repository

	// Reset drops all existing chunks and reinitializes the store to accept
	// vectors of the given dimension. Atomic with respect to concurrent
	// readers: no partial or mixed-dimension state is ever observable.
	Reset(ctx context.Context, dimension int) error

	// AddChunks inserts chunks in order, assigning monotonically increasing IDs
	// and setting InsertedAt. Returns ErrDimensionMismatch without inserting if
	// any embedding's length differs from the store dimension.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// NearestChunks returns up to limit chunks ordered nearest-first by cosine
	// distance to the query vector, ties broken by ascending chunk ID.
	// Returns an empty slice, never an error, when the store is empty.
	NearestChunks(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}

// AuditRepository records query transactions. The log is append-only: records
// are never mutated or deleted by this system.
type AuditRepository interface {
	Repository

	// AppendLogRecord appends one audit record, assigning its ID and CreatedAt.
	AppendLogRecord(ctx context.Context, record *core.LogRecord) (*core.LogRecord, error)

	// RecentLogRecords returns up to limit records, most recent first.
	RecentLogRecords(ctx context.Context, limit int) ([]*core.LogRecord, error)
}
