package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/deedline/internal/core/domain"
)

func testArtifact(content string) *domain.RawArtifact {
	return &domain.RawArtifact{
		SourceID:    "essex-south",
		IndexKey:    "2019-1234",
		ContentType: "application/pdf",
		Content:     []byte(content),
	}
}

func TestPut_RoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	stored, err := store.Put(ctx, testArtifact("%PDF-1.4 bytes"))
	require.NoError(t, err)

	assert.NotEmpty(t, stored.ID)
	assert.NotEmpty(t, stored.StorageRef)

	content, err := store.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 bytes"), content)
}

func TestPut_IdempotentByIdentity(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.Put(ctx, testArtifact("v1"))
	require.NoError(t, err)
	second, err := store.Put(ctx, testArtifact("v2"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same identity lands on the same id")
	assert.Equal(t, first.StorageRef, second.StorageRef)

	content, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), content, "overwrite is deterministic, not duplicating")
}

func TestPut_DistinctIdentitiesDoNotCollide(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	a := testArtifact("a")
	b := testArtifact("b")
	b.IndexKey = "2019-1300"

	storedA, err := store.Put(ctx, a)
	require.NoError(t, err)
	storedB, err := store.Put(ctx, b)
	require.NoError(t, err)

	assert.NotEqual(t, storedA.ID, storedB.ID)
}

func TestPut_LeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	store, err := NewStore(root)
	require.NoError(t, err)

	stored, err := store.Put(context.Background(), testArtifact("bytes"))
	require.NoError(t, err)

	var leftovers []string
	require.NoError(t, filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		require.NoError(t, err)
		if !d.IsDir() && strings.HasPrefix(d.Name(), ".tmp-") {
			leftovers = append(leftovers, path)
		}
		return nil
	}))
	assert.Empty(t, leftovers)
	assert.FileExists(t, stored.StorageRef)
}

func TestPut_CancelledContextWritesNothing(t *testing.T) {
	root := t.TempDir()
	store, err := NewStore(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Put(ctx, testArtifact("bytes"))
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGet_Missing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), ArtifactID("essex-south", "nope"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
