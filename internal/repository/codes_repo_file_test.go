package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCodes(t *testing.T) {
	r := NewFileCodesRepo("", []string{"mision2024", " ", "LIMA"})

	assert.True(t, r.Valid("MISION2024"))
	assert.True(t, r.Valid(" lima "))
	assert.False(t, r.Valid(""))
	assert.False(t, r.Valid("otro"))
	assert.Equal(t, 2, r.Len())

	require.NoError(t, r.Start())
	r.Stop()
}

func TestCodesFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "codes.yml")

	require.NoError(t, os.WriteFile(fname, []byte(`
- code: abc123
  iglesia: Central
- code: OLD
  disabled: true
`), 0o600))

	r := NewFileCodesRepo(fname, nil)

	assert.True(t, r.Valid("ABC123"))
	assert.False(t, r.Valid("old"))
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.Start())
	defer r.Stop()

	require.NoError(t, os.WriteFile(fname, []byte("- code: NEW\n"), 0o600))

	assert.Eventually(t, func() bool { return r.Valid("new") }, 2*time.Second, 20*time.Millisecond)
	assert.False(t, r.Valid("abc123"))
}

func TestMissingCodesFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "codes.yml")

	r := NewFileCodesRepo(fname, []string{"X"})

	_, err := os.Stat(fname)
	require.NoError(t, err)
	assert.True(t, r.Valid("x"))
}
