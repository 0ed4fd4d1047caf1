package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated by the storage backend (database sequences or serial columns).
type ID uint64

// Fingerprint identifies a source document by its content.
type Fingerprint uint64

// FingerprintFromContent generates a deterministic fingerprint from text content
// using BLAKE2b hashing. Identical content always produces the same fingerprint,
// which makes repeated ingestions of the same document recognizable in logs.
func FingerprintFromContent(text string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// AnswerSource classifies how an answer was produced.
type AnswerSource int

const (
	// SourceGenerative means the answer came from the text-generation model.
	SourceGenerative AnswerSource = iota + 1
	// SourceFallback means generation failed and the answer is a context excerpt.
	SourceFallback
	// SourceNoData means the store held no chunks to answer from.
	SourceNoData
)

// String returns the canonical label persisted in the audit log and returned
// by the HTTP API.
func (s AnswerSource) String() string {
	switch s {
	case SourceGenerative:
		return "GenerativeAI"
	case SourceFallback:
		return "DatabaseFallback"
	case SourceNoData:
		return "NoData"
	default:
		return "Unknown"
	}
}

// ParseAnswerSource maps a canonical label back to its AnswerSource.
// Returns ErrInvalidAnswerSource for unrecognized labels.
func ParseAnswerSource(label string) (AnswerSource, error) {
	switch label {
	case "GenerativeAI":
		return SourceGenerative, nil
	case "DatabaseFallback":
		return SourceFallback, nil
	case "NoData":
		return SourceNoData, nil
	default:
		return 0, ErrInvalidAnswerSource
	}
}

// Chunk is a fixed-size slice of ingested document text paired with its
// embedding vector. Chunks are created during ingestion, immutable thereafter,
// and destroyed only by a full re-ingestion of the store.
type Chunk struct {
	Id         ID
	Content    string
	Embedding  []float32 // Fixed-length vector; length must equal the store dimension
	InsertedAt time.Time // When the chunk was inserted into the store
}

// SearchResult is a retrieved chunk with its similarity score.
// Higher scores mean closer matches.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}

// QueryResult is the terminal outcome of answering one question.
// It is ephemeral: its lifetime ends once the transaction has been logged.
type QueryResult struct {
	Answer string
	Source AnswerSource
}

// LogRecord is one audit entry for a query transaction.
// Records are append-only and never mutated or deleted by this system.
type LogRecord struct {
	Id        ID
	Question  string
	Answer    string
	Source    AnswerSource
	CreatedAt time.Time
}
