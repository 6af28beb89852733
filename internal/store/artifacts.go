package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"negprice/internal/engine"
)

// Sink writes payload sections out-of-band as JSON files, named by content
// hash so repeated identical writes are idempotent.
type Sink struct {
	dir string
}

// NewSink creates the artifact directory if needed.
func NewSink(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	return &Sink{dir: dir}, nil
}

// WriteJSON serializes v and writes it under the sink directory, returning a
// reference suitable for embedding in the payload.
func (s *Sink) WriteJSON(name string, v any) (engine.ArtifactRef, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return engine.ArtifactRef{}, fmt.Errorf("marshal artifact %s: %w", name, err)
	}
	sum := sha256.Sum256(raw)
	digest := hex.EncodeToString(sum[:])
	path := filepath.Join(s.dir, fmt.Sprintf("%s-%s.json", name, digest[:8]))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return engine.ArtifactRef{}, fmt.Errorf("write artifact %s: %w", path, err)
	}
	return engine.ArtifactRef{
		Name:   name,
		Path:   path,
		SHA256: digest,
		Bytes:  len(raw),
	}, nil
}
