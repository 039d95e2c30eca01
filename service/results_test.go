package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultsStorageRoundTrip(t *testing.T) {
	storage, err := NewResultsStorage(t.TempDir())
	require.NoError(t, err)

	name, err := storage.SaveExport("report.csv", []byte("id,name\n1,a\n"))
	require.NoError(t, err)
	assert.Equal(t, "report.csv", name)

	path, err := storage.GetResultFilePath("report.csv")
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	files, err := storage.ListResultFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "report.csv", files[0].Filename)
	assert.Equal(t, "csv", files[0].Format)
	assert.Equal(t, int64(len("id,name\n1,a\n")), files[0].Size)
}

func TestResultsStorageFlattensPaths(t *testing.T) {
	storage, err := NewResultsStorage(t.TempDir())
	require.NoError(t, err)

	name, err := storage.SaveExport("../escape/report.xlsx", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "report.xlsx", name)

	_, err = storage.GetResultFilePath("../report.xlsx")
	assert.Error(t, err)
}

func TestResultsStorageListsOnlyExports(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewResultsStorage(dir)
	require.NoError(t, err)

	_, err = storage.SaveExport("keep.csv", []byte("a"))
	require.NoError(t, err)
	_, err = storage.SaveExport("skip.tmp", []byte("b"))
	require.NoError(t, err)

	files, err := storage.ListResultFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "keep.csv", files[0].Filename)
}

func TestGetResultFilePathMissing(t *testing.T) {
	storage, err := NewResultsStorage(t.TempDir())
	require.NoError(t, err)

	_, err = storage.GetResultFilePath("nope.csv")
	assert.Error(t, err)
}
