// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Embedding must not be empty
//
// NOT validated here:
//   - Embedding dimension (checked against the store dimension at insert)
//   - ID (0 is valid before the storage backend assigns one)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if len(chunk.Embedding) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyEmbedding)
	}

	return nil
}

// ValidateLogRecord validates a LogRecord according to domain rules.
//
// Validation rules:
//   - Question must not be empty
//   - Source must be a known AnswerSource
//
// The Answer field may be empty: a generation model can legitimately return
// nothing and the transaction is still recorded.
func ValidateLogRecord(record *LogRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidLogRecord)
	}

	if record.Question == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLogRecord, ErrEmptyQuestion)
	}

	if err := ValidateAnswerSource(record.Source); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLogRecord, err)
	}

	return nil
}

// ValidateAnswerSource validates that an AnswerSource has a valid value.
func ValidateAnswerSource(source AnswerSource) error {
	if source != SourceGenerative && source != SourceFallback && source != SourceNoData {
		return fmt.Errorf("%w: value %d", ErrInvalidAnswerSource, source)
	}
	return nil
}
