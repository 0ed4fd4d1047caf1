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


package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
)

// Backend wraps a PostgreSQL connection pool shared by the repositories.
type Backend struct {
	db *sqlx.DB
}

// OpenBackend connects to the database at databaseURL and verifies the
// connection with a ping.
func OpenBackend(databaseURL string) (*Backend, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	return &Backend{db: db}, nil
}

// NewBackendFromDB wraps an existing *sql.DB. Used by tests that substitute
// a mock driver.
func NewBackendFromDB(db *sql.DB) *Backend {
	return &Backend{db: sqlx.NewDb(db, "postgres")}
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	return b.db.Close()
}

// isUndefinedTable reports whether err is the server telling us the table
// does not exist yet (SQLSTATE 42P01).
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	return false
}
