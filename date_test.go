package t212

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateAcceptsExportFormats(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-03-02 14:30:05", "2025-03-02"},
		{"2025-03-02T14:30:05Z", "2025-03-02"},
		{"2025-03-02", "2025-03-02"},
		{"2025-3-2", "2025-03-02"},
		{" 2025-03-02 ", "2025-03-02"},
	}
	for _, tc := range tests {
		got, err := ParseDate(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got.String(), "input %q", tc.in)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "yesterday", "02/03/2025"} {
		_, err := ParseDate(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestDateArithmetic(t *testing.T) {
	d := MustParseDate("2025-03-01")
	assert.Equal(t, "2025-02-28", d.Add(-1).String())
	assert.Equal(t, "2025-03-31", d.Add(30).String())
	assert.True(t, d.Before(d.Add(1)))
	assert.True(t, d.After(d.Add(-1)))
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := MustParseDate("2025-03-02")
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-02"`, string(raw))

	var got Date
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, d, got)
}
