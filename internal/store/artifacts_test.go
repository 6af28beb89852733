package store

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkWriteJSON(t *testing.T) {
	sink, err := NewSink(t.TempDir())
	require.NoError(t, err)

	ref, err := sink.WriteJSON("hourly_series", []int{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, "hourly_series", ref.Name)
	assert.Len(t, ref.SHA256, 64)
	assert.Greater(t, ref.Bytes, 0)

	raw, err := os.ReadFile(ref.Path)
	require.NoError(t, err)
	var got []int
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, []int{1, 2, 3}, got)

	t.Run("identical content maps to the same file", func(t *testing.T) {
		again, err := sink.WriteJSON("hourly_series", []int{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, ref.Path, again.Path)
	})
}
