// Package store persists analysis outputs: a keyed blob store for report
// payloads (permalinks) and a file sink for out-of-band series artifacts.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when no result exists under the given id.
var ErrNotFound = errors.New("result not found")

var idPattern = regexp.MustCompile(`^[0-9a-f]{8}$`)

// ValidID reports whether id has the expected 8-hex-char shape. Checked
// before hitting the store so malformed permalinks fail fast.
func ValidID(id string) bool { return idPattern.MatchString(id) }

// Results is a keyed JSON blob store for finished report payloads, backed by
// badger. Ids are content hashes salted with the save time, so re-analyzing
// identical input yields a fresh permalink.
type Results struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenResults opens (or creates) the store at dir. ttl of 0 keeps results
// forever.
func OpenResults(dir string, ttl time.Duration) (*Results, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open result store at %s: %w", dir, err)
	}
	return &Results{db: db, ttl: ttl}, nil
}

func (r *Results) Close() error { return r.db.Close() }

// Save stores the serialized payload and returns its new id.
func (r *Results) Save(payload []byte) (string, error) {
	id := newID(payload)
	err := r.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key(id), payload)
		if r.ttl > 0 {
			e = e.WithTTL(r.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return "", fmt.Errorf("save result %s: %w", id, err)
	}
	return id, nil
}

// Load returns the stored payload bytes, or ErrNotFound.
func (r *Results) Load(id string) ([]byte, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	var out []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load result %s: %w", id, err)
	}
	return out, nil
}

func key(id string) []byte { return []byte("result:" + id) }

func newID(payload []byte) string {
	h := sha256.New()
	h.Write(payload)
	h.Write([]byte(time.Now().UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(h.Sum(nil))[:8]
}
