// Package postgres implements the storage repositories on a pgvector-enabled
// PostgreSQL database. Chunk retrieval uses the cosine distance operator
// server-side; the audit log is a plain append-only table.
package postgres
