package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/wiki-crawler/pkg/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_SinglePathComponent(t *testing.T) {
	tmpDir := t.TempDir()
	targetDir := filepath.Join(tmpDir, "testdir")

	err := fileutil.EnsureDir(targetDir)
	require.Nil(t, err)

	info, statErr := os.Stat(targetDir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_MultiplePathComponents(t *testing.T) {
	tmpDir := t.TempDir()
	targetDir := filepath.Join(tmpDir, "wiki", "Category_Singapore")

	err := fileutil.EnsureDir(tmpDir, "wiki", "Category_Singapore")
	require.Nil(t, err)

	info, statErr := os.Stat(targetDir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_DirectoryAlreadyExists(t *testing.T) {
	tmpDir := t.TempDir()
	targetDir := filepath.Join(tmpDir, "existing")
	require.NoError(t, os.MkdirAll(targetDir, 0755))

	assert.Nil(t, fileutil.EnsureDir(targetDir))
}

func TestEnsureDir_PathIsAFile(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	err := fileutil.EnsureDir(file, "sub")
	require.NotNil(t, err)

	var fileErr *fileutil.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, fileutil.ErrCausePathError, fileErr.Cause)
	assert.False(t, fileErr.Retryable)
}

func TestWriteFileAtomic_CreatesParentsAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "queue_state.json")

	require.Nil(t, fileutil.WriteFileAtomic(path, []byte("first")))
	require.Nil(t, fileutil.WriteFileAtomic(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteJSONAtomic_ReadJSON_RoundTrip(t *testing.T) {
	type state struct {
		URLs  []string `json:"urls"`
		Count int      `json:"count"`
	}
	path := filepath.Join(t.TempDir(), "dedup.json")
	in := state{URLs: []string{"https://en.wikipedia.org/wiki/A"}, Count: 1}

	require.Nil(t, fileutil.WriteJSONAtomic(path, in))

	var out state
	require.Nil(t, fileutil.ReadJSON(path, &out))
	assert.Equal(t, in, out)
}

func TestReadJSON_Missing(t *testing.T) {
	var out map[string]any
	err := fileutil.ReadJSON(filepath.Join(t.TempDir(), "nope.json"), &out)

	require.NotNil(t, err)
	assert.True(t, fileutil.IsNotExist(err))
}

func TestReadJSON_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	var out map[string]any
	err := fileutil.ReadJSON(path, &out)

	require.NotNil(t, err)
	assert.False(t, fileutil.IsNotExist(err))
	var fileErr *fileutil.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, fileutil.ErrCauseParseError, fileErr.Cause)
}
