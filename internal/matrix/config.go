package matrix

import (
	"time"

	"registrar/internal/platform/config"
)

// Config is the connector's slice of the process configuration.
type Config struct {
	URL               string
	SharedSecret      string
	UserType          string
	SupportedVersions []string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	BreakerThreshold  int
	BreakerCooldown   time.Duration
}

func FromConfig(c config.Matrix) Config {
	return Config{
		URL:               c.URL,
		SharedSecret:      c.SharedSecret,
		UserType:          c.UserType,
		SupportedVersions: c.SupportedVersions,
		RequestTimeout:    c.RequestTimeout,
		RequestsPerSecond: c.RequestsPerSecond,
		BreakerThreshold:  c.BreakerThreshold,
		BreakerCooldown:   c.BreakerCooldown,
	}
}
