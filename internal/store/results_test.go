package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestResults(t *testing.T) *Results {
	t.Helper()
	r, err := OpenResults(t.TempDir(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestResultsRoundTrip(t *testing.T) {
	r := openTestResults(t)

	payload := []byte(`{"schema_version":"2.0"}`)
	id, err := r.Save(payload)
	require.NoError(t, err)
	assert.True(t, ValidID(id), "generated id %q must be valid", id)

	got, err := r.Load(id)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestResultsIDsAreFresh(t *testing.T) {
	r := openTestResults(t)

	payload := []byte(`{"x":1}`)
	a, err := r.Save(payload)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	b, err := r.Save(payload)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "identical payloads still get distinct permalinks")
}

func TestResultsNotFound(t *testing.T) {
	r := openTestResults(t)

	_, err := r.Load("deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Load("not-an-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("0123abcd"))
	assert.False(t, ValidID("0123ABCD"))
	assert.False(t, ValidID("0123abc"))
	assert.False(t, ValidID("0123abcde"))
	assert.False(t, ValidID("0123abcg"))
	assert.False(t, ValidID(""))
}
