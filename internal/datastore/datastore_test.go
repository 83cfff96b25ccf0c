package datastore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statekit.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.FileExists(t, path)
}

func TestCollection_StringRoundTrip(t *testing.T) {
	s := openMemory(t)
	c := s.Collection("Lifecycle")

	require.NoError(t, c.SetString("LastVersion", "1.2.0"))

	got, err := c.GetString("LastVersion", "")
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", got)
}

func TestCollection_FallbackWhenAbsent(t *testing.T) {
	s := openMemory(t)
	c := s.Collection("Lifecycle")

	str, err := c.GetString("missing", "dflt")
	require.NoError(t, err)
	assert.Equal(t, "dflt", str)

	n, err := c.GetInt64("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	b, err := c.GetBool("missing", true)
	require.NoError(t, err)
	assert.True(t, b)
}

func TestCollection_Int64AndBool(t *testing.T) {
	s := openMemory(t)
	c := s.Collection("Lifecycle")

	require.NoError(t, c.SetInt64("InstallDate", 1693000000))
	require.NoError(t, c.SetBool("SuccessfulClose", true))

	n, err := c.GetInt64("InstallDate", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1693000000), n)

	b, err := c.GetBool("SuccessfulClose", false)
	require.NoError(t, err)
	assert.True(t, b)
}

func TestCollection_OverwriteReplacesValue(t *testing.T) {
	s := openMemory(t)
	c := s.Collection("Lifecycle")

	require.NoError(t, c.SetInt64("Launches", 1))
	require.NoError(t, c.SetInt64("Launches", 2))

	n, err := c.GetInt64("Launches", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCollection_WrongKind(t *testing.T) {
	s := openMemory(t)
	c := s.Collection("Lifecycle")

	require.NoError(t, c.SetString("PauseDate", "not a number"))

	_, err := c.GetInt64("PauseDate", 0)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestCollection_RemoveAndContains(t *testing.T) {
	s := openMemory(t)
	c := s.Collection("Lifecycle")

	require.NoError(t, c.SetBool("SuccessfulClose", false))

	ok, err := c.Contains("SuccessfulClose")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Remove("SuccessfulClose"))
	require.NoError(t, c.Remove("SuccessfulClose"), "removing an absent key is a no-op")

	ok, err = c.Contains("SuccessfulClose")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCollections_Isolated(t *testing.T) {
	s := openMemory(t)

	require.NoError(t, s.Collection("A").SetString("key", "a"))
	require.NoError(t, s.Collection("B").SetString("key", "b"))

	got, err := s.Collection("A").GetString("key", "")
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statekit.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Collection("Lifecycle").SetInt64("Launches", 3))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.Collection("Lifecycle").GetInt64("Launches", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "values survive reopen")
}
