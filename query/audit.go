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


package query

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

const (
	auditPoolSize     = 4
	auditAppendWindow = 5 * time.Second
)

// AuditLog records query transactions off the answer path. Appends are
// best-effort: a failed append is logged and otherwise ignored, so audit
// trouble never turns a good answer into an error.
type AuditLog struct {
	records     storage.AuditRepository
	pool        *ants.Pool
	logger      *slog.Logger
	synchronous bool
	pending     sync.WaitGroup
}

// AuditOption configures an AuditLog.
type AuditOption func(*AuditLog)

// WithSynchronousAudit makes Record append inline instead of through the
// worker pool. Tests use this to observe records without draining.
func WithSynchronousAudit() AuditOption {
	return func(a *AuditLog) {
		a.synchronous = true
	}
}

// NewAuditLog creates an audit log writing to the given repository.
func NewAuditLog(records storage.AuditRepository, opts ...AuditOption) (*AuditLog, error) {
	a := &AuditLog{
		records: records,
		logger:  slog.Default().With("component", "audit"),
	}
	for _, opt := range opts {
		opt(a)
	}

	if !a.synchronous {
		pool, err := ants.NewPool(auditPoolSize)
		if err != nil {
			return nil, err
		}
		a.pool = pool
	}
	return a, nil
}

// Record appends one audit entry for an answered question.
func (a *AuditLog) Record(question string, result *core.QueryResult) {
	record := &core.LogRecord{
		Question: question,
		Answer:   result.Answer,
		Source:   result.Source,
	}

	if a.synchronous {
		a.append(record)
		return
	}

	a.pending.Add(1)
	err := a.pool.Submit(func() {
		defer a.pending.Done()
		a.append(record)
	})
	if err != nil {
		a.pending.Done()
		a.logger.Warn("audit append not scheduled", "error", err)
	}
}

func (a *AuditLog) append(record *core.LogRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), auditAppendWindow)
	defer cancel()

	if _, err := a.records.AppendLogRecord(ctx, record); err != nil {
		a.logger.Warn("audit append failed",
			"source", record.Source.String(),
			"error", err)
	}
}

// Close drains pending appends and releases the worker pool.
func (a *AuditLog) Close() error {
	a.pending.Wait()
	if a.pool != nil {
		a.pool.Release()
	}
	return nil
}
