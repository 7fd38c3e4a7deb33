package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQR(t *testing.T) {
	cases := map[string]int{
		`{"user_id": 7}`:  7,
		"cellhub:user:12": 12,
		" 3 ":             3,
	}
	for input, want := range cases {
		got, err := ParseQR(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, bad := range []string{"", "{", `{"user_id":0}`, "cellhub:user:x", "-4"} {
		_, err := ParseQR(bad)
		assert.Error(t, err, bad)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", sanitizeFilename(`C:\docs\report.pdf`))
	assert.Equal(t, "a.png", sanitizeFilename("../../a.png"))
	assert.Equal(t, "upload", sanitizeFilename(".."))
	assert.Equal(t, "upload", sanitizeFilename(" "))
}
