// Package badger implements the storage repositories on an embedded BadgerDB
// database. Chunks and audit records are serialized with MUS; nearest-neighbor
// queries scan all vectors in process, which is adequate for the chunk counts
// a single ingested document produces. Use the postgres backend when a real
// vector index is needed.
package badger
