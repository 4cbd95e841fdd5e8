package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPaths(t *testing.T) {
	s := New("/data/files", "/data/cache", nil)
	assert.Equal(t, filepath.Join("/data/files", DocumentFileName), s.DocumentPath())
	assert.Equal(t, filepath.Join("/data/cache", BytesFileName), s.ScratchPath())
	assert.NotEqual(t, filepath.Base(s.DocumentPath()), filepath.Base(s.ScratchPath()))
}

func TestDefaults(t *testing.T) {
	s := New("", "", nil)
	assert.Equal(t, filepath.Join(DefaultFilesDir(), DocumentFileName), s.DocumentPath())
	assert.Equal(t, filepath.Join(DefaultCacheDir(), BytesFileName), s.ScratchPath())
}

func TestCreateMakesParentsAndTruncates(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "a", "b"), dir, nil)
	path := s.DocumentPath()

	f, err := s.Create(path)
	require.NoError(t, err)
	_, err = f.WriteString("first version, longer")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = s.Create(path)
	require.NoError(t, err)
	_, err = f.WriteString("second")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := s.ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestReadAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, dir, nil)
	path := s.ScratchPath()
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	data, err := s.ReadAndDelete(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
	assert.NoFileExists(t, path)
}

func TestReadAndDeleteMissing(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, dir, nil)

	_, err := s.ReadAndDelete(s.ScratchPath())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDeleteFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dir := t.TempDir()
	s := New(dir, dir, zap.New(core))

	// A non-empty directory cannot be removed with a plain delete.
	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(filepath.Join(nested, "child"), 0o755))

	assert.False(t, s.Delete(nested))
	assert.Equal(t, 1, logs.FilterMessage("failed to delete temporary file").Len())

	assert.True(t, s.Delete(filepath.Join(dir, "missing.pdf")))
}

func TestEnsureDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "x", "y")
	s := New(dir, dir, nil)
	require.NoError(t, s.EnsureDirectory(dir))
	assert.DirExists(t, dir)
	require.NoError(t, s.EnsureDirectory(dir))
}
