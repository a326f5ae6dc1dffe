// Package fs stores raw document artifacts on the local filesystem.
//
// Artifacts are addressed by a digest of their source and index key, so a
// re-fetch of the same document lands on the same path instead of
// duplicating. Writes go through a temp file and an atomic rename; a
// cancelled ingestion never leaves a partial artifact behind.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ArtifactStore = (*Store)(nil)

// Store is a content-addressed local artifact store.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory.
// If root is empty, defaults to ~/.deedline/artifacts.
func NewStore(root string) (*Store, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		root = filepath.Join(home, ".deedline", "artifacts")
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("creating artifact root: %w", err)
	}
	return &Store{root: root}, nil
}

// ArtifactID derives the stable artifact id for a source and index key.
// Identical identities always map to the same id, which is what makes
// writes idempotent.
func ArtifactID(sourceID, indexKey string) string {
	sum := sha256.Sum256([]byte(sourceID + "|" + indexKey))
	return hex.EncodeToString(sum[:])
}

// Put persists the artifact's bytes under its identity-derived path.
func (s *Store) Put(ctx context.Context, artifact *domain.RawArtifact) (*domain.RawArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := ArtifactID(artifact.SourceID, artifact.IndexKey)
	path := s.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("staging artifact: %w", err)
	}
	if _, err := tmp.Write(artifact.Content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("closing artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("publishing artifact: %w", err)
	}

	stored := *artifact
	stored.ID = id
	stored.StorageRef = path
	return &stored, nil
}

// Get retrieves stored bytes by artifact id.
func (s *Store) Get(ctx context.Context, artifactID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(s.pathFor(artifactID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: artifact %q", domain.ErrNotFound, artifactID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	return content, nil
}

// pathFor fans artifacts out over two-character shard directories.
func (s *Store) pathFor(id string) string {
	shard := "00"
	if len(id) >= 2 {
		shard = id[:2]
	}
	return filepath.Join(s.root, shard, id)
}
