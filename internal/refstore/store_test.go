// Package refstore_test tests the reference-audio store.
package refstore_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/voiceclone-service/internal/refstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *refstore.Store {
	t.Helper()

	log, err := logger.New(t.TempDir(), "refstore-test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = log.Close() })

	store, err := refstore.New(filepath.Join(t.TempDir(), "prompts"), log)
	require.NoError(t, err)

	return store
}

func TestStore_SaveSetsCurrent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	_, ok := store.Current()
	assert.False(t, ok)

	ref, err := store.Save("speaker.wav", []byte("fake-wav-bytes"))
	require.NoError(t, err)
	assert.NotEmpty(t, ref.ID)
	assert.Equal(t, "speaker.wav", ref.Name)

	data, err := os.ReadFile(ref.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-wav-bytes"), data)

	current, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, ref.ID, current.ID)
}

func TestStore_LatestUploadWins(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	_, err := store.Save("first.wav", []byte("one"))
	require.NoError(t, err)

	second, err := store.Save("second.wav", []byte("two"))
	require.NoError(t, err)

	current, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, second.ID, current.ID)

	refs := store.List()
	require.Len(t, refs, 2)
	assert.Equal(t, "first.wav", refs[0].Name)
	assert.Equal(t, "second.wav", refs[1].Name)
}

func TestStore_SaveValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	_, err := store.Save("", []byte("data"))
	require.ErrorIs(t, err, refstore.ErrEmptyName)

	_, err = store.Save("name.wav", nil)
	require.ErrorIs(t, err, refstore.ErrEmptyData)
}

func TestStore_SanitizesUploadedNames(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	ref, err := store.Save("../../etc/pass wd.wav", []byte("data"))
	require.NoError(t, err)

	base := filepath.Base(ref.Path)
	assert.False(t, strings.Contains(base, "/"))
	assert.True(t, strings.HasSuffix(base, "pass_wd.wav"))

	// The file must land inside the store directory.
	assert.Equal(t, filepath.Dir(ref.Path), filepath.Clean(filepath.Dir(ref.Path)))
}
