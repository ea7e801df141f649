package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffExpiry(t *testing.T) {
	tests := []struct {
		count int64
		want  time.Duration
	}{
		{count: -3, want: time.Second},
		{count: 0, want: time.Second},
		{count: 1, want: 2 * time.Second},
		{count: 2, want: 3 * time.Second},
		{count: 3, want: 5 * time.Second},
		{count: 4, want: 9 * time.Second},
		{count: 10, want: 513 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BackoffExpiry(tt.count, 24*time.Hour), "count %d", tt.count)
	}
}

func TestBackoffExpiryIsCapped(t *testing.T) {
	assert.Equal(t, time.Hour, BackoffExpiry(20, time.Hour))
	assert.Equal(t, time.Hour, BackoffExpiry(1<<40, time.Hour))
	assert.Equal(t, time.Duration(1<<32+1)*time.Second, BackoffExpiry(1000, 0), "zero max disables the cap")
}

func TestKey(t *testing.T) {
	k := Key("curl/8.0:10.0.0.1:")
	assert.True(t, strings.HasPrefix(k, KeyPrefix))
	assert.Len(t, k, len(KeyPrefix)+32)
	assert.Equal(t, k, Key("curl/8.0:10.0.0.1:"))
	assert.NotEqual(t, k, Key("curl/8.0:10.0.0.2:"))
	assert.NotContains(t, k, "10.0.0.1")
}
