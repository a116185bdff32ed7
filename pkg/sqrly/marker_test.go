package sqrly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarker(t *testing.T) {
	assert.Equal(t, "-- users.sql", Marker("/repo/sql/functions/users.sql"))
	assert.Equal(t, "-- users.sql\n", MarkerLine("users.sql"))
}

func TestContainsMarker(t *testing.T) {
	text := "-- a.sql\ncreate table a ();\n\n-- nested.sql\nselect 1;\n"
	for _, tc := range []struct {
		name     string
		path     string
		expected bool
	}{
		{name: "first block", path: "/src/a.sql", expected: true},
		{name: "later block", path: "/src/deep/nested.sql", expected: true},
		{name: "absent", path: "/src/b.sql", expected: false},
		{name: "case sensitive", path: "/src/A.sql", expected: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ContainsMarker(text, tc.path))
		})
	}
}

func TestFormatVersion(t *testing.T) {
	v, err := FormatVersion(FormatHeader() + "-- a.sql\n")
	require.NoError(t, err)
	assert.Equal(t, MarkerFormatVersion, v)

	v, err = FormatVersion("-- a.sql\nselect 1;\n")
	require.NoError(t, err)
	assert.Equal(t, MarkerFormatVersion, v)

	v, err = FormatVersion("-- sqrly marker format: 7\r\n")
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = FormatVersion("-- sqrly marker format: x\n")
	assert.ErrorIs(t, err, ErrMarkerFormat)
}
