package badger

import (
	"encoding/binary"

	"github.com/poiesic/docquery/core"
)

// Key prefixes and sequence names. Chunk keys carry the ID big-endian so a
// prefix iteration visits chunks in ID order; log keys do the same so a
// reverse iteration yields most-recent-first.
const (
	chunkKeyPrefix = "chunk:"
	logKeyPrefix   = "qlog:"
	dimensionKey   = "meta:dimension"

	chunkSequenceName = "seq:chunk"
	logSequenceName   = "seq:qlog"
)

func makeChunkKey(id core.ID) []byte {
	key := make([]byte, len(chunkKeyPrefix)+8)
	copy(key, chunkKeyPrefix)
	binary.BigEndian.PutUint64(key[len(chunkKeyPrefix):], uint64(id))
	return key
}

func makeLogKey(id core.ID) []byte {
	key := make([]byte, len(logKeyPrefix)+8)
	copy(key, logKeyPrefix)
	binary.BigEndian.PutUint64(key[len(logKeyPrefix):], uint64(id))
	return key
}

func makeDimensionValue(dimension int) []byte {
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, uint64(dimension))
	return value
}

func parseDimensionValue(value []byte) int {
	return int(binary.BigEndian.Uint64(value))
}
