package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"jane.doe@example.org", "Jane Doe"},
		{"jane.doe+lists@example.org", "Jane Doe Lists"},
		{"zoe@example.org", "Zoe"},
		{"...@example.org", "there"},
		{"", "there"},
		{"no-at-sign", "No At Sign"},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.address, "there"))
		})
	}
}

func TestLocalPart(t *testing.T) {
	assert.Equal(t, "a", LocalPart("a@b"))
	assert.Equal(t, "@b", LocalPart("@b"))
	assert.Equal(t, "plain", LocalPart("plain"))
}
