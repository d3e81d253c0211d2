package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"ABCD010101HDFXXX01_PAGO.pdf": "ABCD010101HDFXXX01_PAGO.pdf",
		"../../etc/passwd":            "passwd",
		`C:\Users\ana\pago final.pdf`: "pago_final.pdf",
		"..hidden.pdf":                "hidden.pdf",
		"señor(1).pdf":                "seor1.pdf",
		"../..":                       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestSaveExclusiveNeverOverwrites(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.SaveExclusive("ABC_PAGO.pdf", strings.NewReader("first"), 0)
	require.NoError(t, err)
	assert.Equal(t, "ABC_PAGO.pdf", name)

	_, err = store.SaveExclusive("ABC_PAGO.pdf", strings.NewReader("second"), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExists))

	data, err := os.ReadFile(filepath.Join(store.baseDir, "ABC_PAGO.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestSaveExclusiveEnforcesLimit(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveExclusive("big.pdf", bytes.NewReader(make([]byte, 11)), 10)
	require.ErrorIs(t, err, ErrTooLarge)

	exists, err := store.Exists("big.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.SaveExclusive("fits.pdf", bytes.NewReader(make([]byte, 10)), 10)
	require.NoError(t, err)
}

func TestDeleteToleratesMissing(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Delete("never-written.pdf"))

	_, err = store.SaveExclusive("x.pdf", strings.NewReader("x"), 0)
	require.NoError(t, err)
	require.NoError(t, store.Delete("x.pdf"))
	exists, err := store.Exists("x.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOpenStaysInsideBaseDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("s"), 0o644))
	store, err := NewLocalStorage(filepath.Join(root, "uploads"))
	require.NoError(t, err)

	_, err = store.Open("../secret.txt")
	assert.Error(t, err)
}

func TestListSkipsDirectories(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(store.baseDir, "sub"), 0o755))
	for _, n := range []string{"b.pdf", "a.pdf"} {
		_, err := store.SaveExclusive(n, strings.NewReader(n), 0)
		require.NoError(t, err)
	}

	files, err := store.List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.pdf", files[0].Name)
	assert.Equal(t, int64(5), files[1].Size)
}

func TestStatReportsStoredFile(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	_, err = store.SaveExclusive("ABC_CURP.pdf", strings.NewReader("%PDF"), 0)
	require.NoError(t, err)

	info, err := store.Stat("ABC_CURP.pdf")
	require.NoError(t, err)
	assert.Equal(t, "ABC_CURP.pdf", info.Name)
	assert.Equal(t, int64(4), info.Size)
	assert.False(t, info.ModTime.IsZero())

	_, err = store.Stat("NOPE_CURP.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
