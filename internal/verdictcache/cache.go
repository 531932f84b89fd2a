// Package verdictcache memoizes interesting/uninteresting outcomes by the
// content hash of the candidate testcase, adapted from the teacher's
// binary ticket cache (internal/ticket/cache.go). Strategies that re-probe
// overlapping ranges (MinimizeSurroundingPairs' mirrored chunk, repeated
// rounds under --repeat=always) often re-save a candidate byte-identical
// to one already tested; a cache hit skips the external oracle invocation
// entirely. Kept independent of package oracle's Verdict type so either
// can depend on the other without a cycle; callers translate at the
// boundary.
package verdictcache

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/natefinch/atomic"
)

const (
	cacheMagic      = "LVC1"
	cacheVersionNum = 1
	cacheHeaderSize = 16
	indexEntrySize  = sha256.Size + 1 // hash + verdict byte
)

var (
	errInvalidMagic    = errors.New("verdictcache: invalid magic")
	errVersionMismatch = errors.New("verdictcache: version mismatch")
	errFileTooSmall    = errors.New("verdictcache: file too small")
	errCorrupt         = errors.New("verdictcache: corrupt entry count")
)

// Key identifies a candidate by the sha256 of its serialized bytes.
type Key [sha256.Size]byte

// HashKey computes the Key for a candidate's on-disk bytes.
func HashKey(data []byte) Key {
	return Key(sha256.Sum256(data))
}

// Cache is an in-memory, file-backed memoization table mapping a
// candidate's content hash to whether it was interesting. Not safe for
// concurrent use; lithium runs a single strategy sequentially (§5), so a
// mutex is unnecessary.
type Cache struct {
	path    string
	entries map[Key]bool
	dirty   bool
}

// Open loads path if it exists and parses to the current version;
// anything else (missing file, version mismatch, corruption) starts a
// fresh, empty cache rather than failing the run, since the cache is a
// pure optimization.
func Open(path string) *Cache {
	entries, err := load(path)
	if err != nil {
		entries = make(map[Key]bool)
	}

	return &Cache{path: path, entries: entries}
}

// Lookup returns the memoized interesting/uninteresting outcome for key,
// if present.
func (c *Cache) Lookup(key Key) (interesting, ok bool) {
	v, ok := c.entries[key]

	return v, ok
}

// Record stores the outcome for key, to be persisted on the next Flush.
func (c *Cache) Record(key Key, interesting bool) {
	c.entries[key] = interesting
	c.dirty = true
}

// Flush writes the cache to disk if anything changed since the last
// Flush, via the same write-temp+rename path the teacher's cache uses
// (github.com/natefinch/atomic), so a crash mid-write never corrupts the
// previous, still-valid cache file.
func (c *Cache) Flush() error {
	if !c.dirty {
		return nil
	}

	if err := save(c.path, c.entries); err != nil {
		return fmt.Errorf("flushing verdict cache: %w", err)
	}

	c.dirty = false

	return nil
}

func load(path string) (map[Key]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(data) < cacheHeaderSize {
		return nil, errFileTooSmall
	}

	if string(data[0:4]) != cacheMagic {
		return nil, errInvalidMagic
	}

	version := binary.LittleEndian.Uint16(data[4:6])
	if version != cacheVersionNum {
		return nil, errVersionMismatch
	}

	count := binary.LittleEndian.Uint32(data[6:10])

	expected := cacheHeaderSize + int(count)*indexEntrySize
	if len(data) != expected {
		return nil, errCorrupt
	}

	entries := make(map[Key]bool, count)

	for i := 0; i < int(count); i++ {
		offset := cacheHeaderSize + i*indexEntrySize

		var key Key
		copy(key[:], data[offset:offset+sha256.Size])

		entries[key] = data[offset+sha256.Size] != 0
	}

	return entries, nil
}

func save(path string, entries map[Key]bool) error {
	keys := make([]Key, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })

	buf := make([]byte, cacheHeaderSize+len(keys)*indexEntrySize)

	copy(buf[0:4], cacheMagic)
	binary.LittleEndian.PutUint16(buf[4:6], cacheVersionNum)
	binary.LittleEndian.PutUint32(buf[6:10], uint32(len(keys)))

	for i, k := range keys {
		offset := cacheHeaderSize + i*indexEntrySize
		copy(buf[offset:offset+sha256.Size], k[:])

		if entries[k] {
			buf[offset+sha256.Size] = 1
		}
	}

	return atomic.WriteFile(path, bytes.NewReader(buf))
}
