package badger

import (
	"github.com/poiesic/docquery/storage"
)

// NewMemoryRepositories opens an in-memory backend with both repositories on
// it. Intended for tests and local experiments; the caller must close the
// repositories and then the backend.
func NewMemoryRepositories() (*Backend, storage.ChunkRepository, storage.AuditRepository, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}

	chunks, err := NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}

	audit, err := NewAuditRepository(backend)
	if err != nil {
		chunks.Close()
		backend.Close()
		return nil, nil, nil, err
	}

	return backend, chunks, audit, nil
}
