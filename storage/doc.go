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


// Package storage defines the persistence interfaces for DocQuery.
//
// Two repositories cover the system's state: ChunkRepository holds document
// chunks with their embeddings and answers nearest-neighbor queries, and
// AuditRepository keeps the append-only log of query transactions.
//
// Two backends implement these interfaces:
//
//   - storage/postgres: the production backend on a pgvector-enabled
//     PostgreSQL database
//   - storage/badger: an embedded backend for local development and tests,
//     scanning vectors in process
//
// The store-lifetime invariant is enforced at the interface boundary: a chunk
// whose embedding length differs from the dimension the store was reset to is
// rejected with ErrDimensionMismatch and never persisted.
package storage
