package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID string
}

func TestBuildCursorPageInfo(t *testing.T) {
	extract := func(r *row) string { return r.ID }

	t.Run("empty result", func(t *testing.T) {
		info := BuildCursorPageInfo(nil, 10, extract)
		require.NotNil(t, info)
		assert.False(t, info.HasMore)
		assert.Empty(t, info.NextPageToken)
	})

	t.Run("overfetched page has more", func(t *testing.T) {
		data := []*row{{ID: "a"}, {ID: "b"}, {ID: "c"}}
		info := BuildCursorPageInfo(data, 2, extract)
		assert.True(t, info.HasMore)
		assert.Equal(t, "b", info.NextPageToken)
	})

	t.Run("exact page is the last one", func(t *testing.T) {
		data := []*row{{ID: "a"}, {ID: "b"}}
		info := BuildCursorPageInfo(data, 2, extract)
		assert.False(t, info.HasMore)
		assert.Equal(t, "b", info.NextPageToken)
	})
}

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2026-02-01T09:00:00Z"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
	assert.Equal(t, "2026-02-01T09:00:00Z", cursor.CreatedAt)

	_, err = DecodeCursor("%%%not-base64%%%")
	assert.Error(t, err)
}
