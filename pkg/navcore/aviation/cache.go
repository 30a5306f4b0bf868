package aviation

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/airnav/navcore/pkg/navcore/util"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

const (
	// cacheSchemaVersion is the current on-disk snapshot layout: the
	// indexed stores (merged entities, MORA cells, validity window) and
	// the raw source bundle are encoded, compressed, and checksummed as
	// two independent units, so a cold-start Load only ever pays the
	// cost of hashing the (small) indexed half.
	cacheSchemaVersion = 2

	// cacheSchemaVersionCombinedV1 is this package's original layout,
	// where the indexed stores and the raw bundle were encoded and
	// checksummed together as one blob. Load still reads rows written at
	// this version for backward compatibility; Save always rewrites them
	// at cacheSchemaVersion on the next write.
	cacheSchemaVersionCombinedV1 = 1
)

// ErrChecksumMismatch is returned by Load/LoadRawBundles when a stored
// checksum does not match the decompressed payload's recomputed one.
var ErrChecksumMismatch = errors.New("cache: checksum mismatch")

// ErrUnknownSchemaVersion is returned by Load when a stored row carries a
// schema version this build does not know how to read. Known older
// versions (see cacheSchemaVersionCombinedV1) are still read and are
// upgraded to the current layout on the next Save; this error is reserved
// for versions ahead of or otherwise unrecognized by this build.
var ErrUnknownSchemaVersion = errors.New("cache: unknown schema version")

// Snapshot is the full logical unit Cache.Save persists and Cache.Load
// restores: one merged store, the MORA cell list, the authoritative
// source's validity window, and the raw source bundles retained so a
// reindex can re-derive the merge without a network fetch.
//
// For a row at cacheSchemaVersion, Load only decodes and checksums the
// indexed half (Merged, MORACells, Validity); RawBundles comes back
// empty from Load and is populated only by a call to LoadRawBundles, the
// one path that pays the cost of decompressing and hashing the
// (potentially several-megabyte) raw bundle. A row still at
// cacheSchemaVersionCombinedV1 keeps both halves in one blob, so Load
// returns its RawBundles too (and no Validity).
type Snapshot struct {
	SchemaVersion int
	Merged        MergedStore
	MORACells     []MORACell
	Validity      *ValidityWindow
	RawBundles    map[string][]byte // source tag -> raw fetched bytes
}

// indexedPayload is the encoded shape of the fast-path half of a
// snapshot: everything the query engine and terrain grid need to start
// serving requests, without the raw bundle.
type indexedPayload struct {
	Merged    MergedStore
	MORACells []MORACell
	Validity  *ValidityWindow
}

// legacyCombinedPayload is the encoded shape cacheSchemaVersionCombinedV1
// wrote: indexed stores and raw bundle together, under the same
// indexed_checksum/indexed_blob columns the current layout uses for the
// indexed half alone.
type legacyCombinedPayload struct {
	Merged     MergedStore
	MORACells  []MORACell
	RawBundles map[string][]byte
}

// Cache is the persistent snapshot store: a single-table SQLite database
// (modernc.org/sqlite, pure Go, no cgo) holding one msgpack-encoded,
// zstd-compressed blob pair per snapshot generation, addressed by key.
// Grounded on modernc.org/sqlite usage in plane-watch-acars-parser's
// internal/storage/sqlite.go for the driver/open pattern, and on
// mmp-vice's wx/manifest.go for the msgpack+zstd encode/decode pair; the
// sha256 checksum technique is grounded on mmp-vice's
// cmd/vice/resources_download.go:calculateSHA256.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if absent) the snapshot cache at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		key              TEXT PRIMARY KEY,
		schema_version   INTEGER NOT NULL,
		indexed_checksum TEXT NOT NULL,
		indexed_blob     BLOB NOT NULL,
		raw_checksum     TEXT NOT NULL,
		raw_blob         BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create table: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Save encodes, checksums, and compresses the indexed stores and the raw
// bundle as two independent units and writes them under key in a single
// transaction, so a reader never observes a partially written row. Every
// Save upgrades the row to cacheSchemaVersion, even one restored from an
// older layout by Load.
func (c *Cache) Save(key string, snap Snapshot) error {
	indexedEncoded, err := msgpack.Marshal(indexedPayload{
		Merged: snap.Merged, MORACells: snap.MORACells, Validity: snap.Validity,
	})
	if err != nil {
		return fmt.Errorf("cache: encode indexed stores: %w", err)
	}
	indexedChecksum := checksumHex(indexedEncoded)
	indexedCompressed, err := util.CompressBytes(indexedEncoded, zstd.SpeedDefault)
	if err != nil {
		return fmt.Errorf("cache: compress indexed stores: %w", err)
	}

	rawEncoded, err := msgpack.Marshal(snap.RawBundles)
	if err != nil {
		return fmt.Errorf("cache: encode raw bundle: %w", err)
	}
	rawChecksum := checksumHex(rawEncoded)
	rawCompressed, err := util.CompressBytes(rawEncoded, zstd.SpeedDefault)
	if err != nil {
		return fmt.Errorf("cache: compress raw bundle: %w", err)
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO snapshots (key, schema_version, indexed_checksum, indexed_blob, raw_checksum, raw_blob)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET schema_version=excluded.schema_version,
			indexed_checksum=excluded.indexed_checksum, indexed_blob=excluded.indexed_blob,
			raw_checksum=excluded.raw_checksum, raw_blob=excluded.raw_blob`,
		key, cacheSchemaVersion, indexedChecksum, indexedCompressed, rawChecksum, rawCompressed); err != nil {
		return fmt.Errorf("cache: insert: %w", err)
	}

	return tx.Commit()
}

// Load reads the indexed half of the snapshot stored under key,
// verifying its schema version and checksum before returning it.
// For a current-layout row RawBundles is left nil; call LoadRawBundles
// to fetch and verify it separately. A row written by a known older
// schema version is read and returned normally, raw bundles included
// (the caller's next Save upgrades it); an unknown
// version or a checksum mismatch is reported as an error so the caller
// can fall back to a fresh Fetch/Parse/Merge cycle.
func (c *Cache) Load(key string) (Snapshot, error) {
	var schemaVersion int
	var indexedChecksum string
	var indexedCompressed []byte
	row := c.db.QueryRow(`SELECT schema_version, indexed_checksum, indexed_blob FROM snapshots WHERE key = ?`, key)
	if err := row.Scan(&schemaVersion, &indexedChecksum, &indexedCompressed); err != nil {
		return Snapshot{}, fmt.Errorf("cache: load %q: %w", key, err)
	}

	encoded, err := util.DecompressBytes(indexedCompressed)
	if err != nil {
		return Snapshot{}, fmt.Errorf("cache: decompress %q: %w", key, err)
	}
	if checksumHex(encoded) != indexedChecksum {
		return Snapshot{}, fmt.Errorf("cache: load %q: %w", key, ErrChecksumMismatch)
	}

	switch schemaVersion {
	case cacheSchemaVersion:
		var payload indexedPayload
		if err := msgpack.Unmarshal(encoded, &payload); err != nil {
			return Snapshot{}, fmt.Errorf("cache: decode %q: %w", key, err)
		}
		return Snapshot{
			SchemaVersion: schemaVersion,
			Merged:        payload.Merged,
			MORACells:     payload.MORACells,
			Validity:      payload.Validity,
		}, nil

	case cacheSchemaVersionCombinedV1:
		var payload legacyCombinedPayload
		if err := msgpack.Unmarshal(encoded, &payload); err != nil {
			return Snapshot{}, fmt.Errorf("cache: decode %q: %w", key, err)
		}
		return Snapshot{
			SchemaVersion: schemaVersion,
			Merged:        payload.Merged,
			MORACells:     payload.MORACells,
			RawBundles:    payload.RawBundles,
		}, nil

	default:
		return Snapshot{}, fmt.Errorf("cache: load %q: %w: version %d", key, ErrUnknownSchemaVersion, schemaVersion)
	}
}

// LoadRawBundles decompresses and verifies the retained raw-source bundle
// for key, independently of Load. This is the one path that pays the
// cost of decompressing and hashing the raw bundle; it exists
// specifically so Reindex can pay that cost while every other cold start
// skips it.
//
// A row still written at cacheSchemaVersionCombinedV1 has no separate raw
// blob (the legacy layout bundled it with the indexed stores under one
// checksum), so this falls back to reading it via Load instead.
func (c *Cache) LoadRawBundles(key string) (map[string][]byte, error) {
	var schemaVersion int
	var rawChecksum string
	var rawCompressed []byte
	row := c.db.QueryRow(`SELECT schema_version, raw_checksum, raw_blob FROM snapshots WHERE key = ?`, key)
	if err := row.Scan(&schemaVersion, &rawChecksum, &rawCompressed); err != nil {
		return nil, fmt.Errorf("cache: load raw bundle %q: %w", key, err)
	}

	if schemaVersion == cacheSchemaVersionCombinedV1 {
		snap, err := c.Load(key)
		if err != nil {
			return nil, err
		}
		return snap.RawBundles, nil
	}

	encoded, err := util.DecompressBytes(rawCompressed)
	if err != nil {
		return nil, fmt.Errorf("cache: decompress raw bundle %q: %w", key, err)
	}
	if checksumHex(encoded) != rawChecksum {
		return nil, fmt.Errorf("cache: load raw bundle %q: %w", key, ErrChecksumMismatch)
	}

	var bundles map[string][]byte
	if err := msgpack.Unmarshal(encoded, &bundles); err != nil {
		return nil, fmt.Errorf("cache: decode raw bundle %q: %w", key, err)
	}
	return bundles, nil
}

func checksumHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Clear deletes all stored snapshots, used by Repository.Clear and by
// the repository's integrity-failure recovery path to force a clean
// rebuild.
func (c *Cache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM snapshots`)
	return err
}
