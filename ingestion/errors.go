package ingestion

import "errors"

var (
	// ErrEmptyDocument indicates the source document had no extractable text.
	ErrEmptyDocument = errors.New("document contains no text")

	// ErrDocumentUnreadable indicates the source file could not be opened or parsed.
	ErrDocumentUnreadable = errors.New("document could not be read")
)
