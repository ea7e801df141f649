package models

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// KeyPrefix namespaces limiter counters in the shared cache.
const KeyPrefix = "ratelimit:"

// maxExponent keeps 2^(count-1) seconds representable as a time.Duration.
const maxExponent = 32

// Key derives the fixed-length cache key for a caller identifier. The raw
// identifier never reaches the cache or the logs.
func Key(identifier string) string {
	sum, err := blake2b.New(16, nil)
	if err != nil {
		// Only fails for invalid sizes or keys.
		panic(err)
	}
	sum.Write([]byte(identifier))
	return KeyPrefix + hex.EncodeToString(sum.Sum(nil))
}

// BackoffExpiry returns ceil((2^count-1)/2+1) seconds, capped at ceiling.
// For count >= 1 this is 2^(count-1)+1; for count <= 0 it is one second.
func BackoffExpiry(count int64, ceiling time.Duration) time.Duration {
	seconds := int64(1)
	if count >= 1 {
		exp := min(count-1, maxExponent)
		seconds = int64(1)<<exp + 1
	}
	d := time.Duration(seconds) * time.Second
	if ceiling > 0 && d > ceiling {
		return ceiling
	}
	return d
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	// Count is the number of requests seen in the current window, this one included.
	Count int64
	// Expiry is the window length after this request.
	Expiry time.Duration
}
