package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeMultiFieldToken(t *testing.T) {
	token := EncodeMultiFieldToken("tx-1", "commodity", "40")
	assert.NotContains(t, token, "=")

	fields, err := DecodeMultiFieldToken(token)
	require.NoError(t, err)
	assert.Equal(t, []string{"tx-1", "commodity", "40"}, fields)

	_, err = DecodeMultiFieldToken("%%%")
	assert.Error(t, err)
}

func TestOffsetToken(t *testing.T) {
	token := EncodeOffsetToken(25, "tx-1", "conversion")

	offset, err := DecodeOffsetToken(token, "tx-1", "conversion")
	require.NoError(t, err)
	assert.Equal(t, 25, offset)

	_, err = DecodeOffsetToken(token, "tx-2", "conversion")
	assert.Error(t, err, "token bound to another anchor")

	_, err = DecodeOffsetToken(token, "tx-1")
	assert.Error(t, err, "field count mismatch")

	_, err = DecodeOffsetToken(EncodeMultiFieldToken("tx-1", "-3"), "tx-1")
	assert.Error(t, err, "negative offset")

	_, err = DecodeOffsetToken(EncodeMultiFieldToken("tx-1", "abc"), "tx-1")
	assert.Error(t, err, "non-numeric offset")
}

func TestWindow(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name   string
		offset int
		limit  int
		page   []string
		next   int
	}{
		{"no limit", 0, 0, items, 0},
		{"first page", 0, 2, []string{"a", "b"}, 2},
		{"middle page", 2, 2, []string{"c", "d"}, 4},
		{"last partial page", 4, 2, []string{"e"}, 0},
		{"exact last page", 3, 2, []string{"d", "e"}, 0},
		{"offset past end", 9, 2, []string{}, 0},
		{"rest from offset", 3, 0, []string{"d", "e"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, next := Window(items, tt.offset, tt.limit)
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.next, next)
		})
	}
}
