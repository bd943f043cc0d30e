package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullFloatTwoDecimals(t *testing.T) {
	s, err := NewNullFloat(3.14159).MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "3.14", s)

	s, err = NewNullFloat(7).MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "7.00", s)

	s, err = NullFloat{}.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestNullFloatUnmarshal(t *testing.T) {
	var f NullFloat
	require.NoError(t, f.UnmarshalCSV(" 12.50 "))
	assert.True(t, f.Valid)
	assert.Equal(t, 12.5, f.Float64)

	require.NoError(t, f.UnmarshalCSV(""))
	assert.False(t, f.Valid)

	require.NoError(t, f.UnmarshalCSV("NaN"))
	assert.False(t, f.Valid)

	assert.Error(t, f.UnmarshalCSV("twelve"))
}

func TestNullStringRoundTrip(t *testing.T) {
	var s NullString
	require.NoError(t, s.UnmarshalCSV("Clay"))
	assert.Equal(t, NewNullString("Clay"), s)

	out, err := s.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "Clay", out)

	require.NoError(t, s.UnmarshalCSV(""))
	assert.False(t, s.Valid)
	assert.Equal(t, "", s.OrEmpty())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-07-14")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, 7, d.Month())
	assert.Equal(t, "2024-07-14", d.String())

	_, err = ParseDate("14/07/2024")
	assert.Error(t, err)
}

func TestDateUnmarshalAcceptsTimestamps(t *testing.T) {
	for _, in := range []string{"2024-07-14", "2024-07-14 00:00:00", "2024-07-14T00:00:00Z"} {
		var d Date
		require.NoError(t, d.UnmarshalCSV(in), in)
		out, err := d.MarshalCSV()
		require.NoError(t, err)
		assert.Equal(t, "2024-07-14", out, in)
	}

	var d Date
	assert.Error(t, d.UnmarshalCSV("July 14"))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Serve | 1st Serve", Label("Serve", "1st Serve"))
}
