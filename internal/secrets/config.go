package secrets

import (
	"errors"
	"runtime"

	"registrar/internal/platform/config"
)

// Params controls argon2id hashing cost. MemoryKiB is in KiB as required by
// argon2.IDKey.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Config is the hasher's cost parameters plus the size of its worker pool.
type Config struct {
	Params  Params
	Workers int
}

// DefaultConfig returns the production baseline.
func DefaultConfig() Config {
	return Config{
		Params: Params{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Workers: runtime.NumCPU(),
	}
}

// FromConfig converts the process configuration into hasher settings.
func FromConfig(c config.Hasher) Config {
	return Config{
		Params: Params{
			MemoryKiB:   c.MemoryKiB,
			Iterations:  c.Iterations,
			Parallelism: c.Parallelism,
			SaltLength:  c.SaltLength,
			KeyLength:   c.KeyLength,
		},
		Workers: c.Workers,
	}
}

func (c Config) validate() error {
	p := c.Params
	if p.MemoryKiB == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return errors.New("argon2 memory, iterations and parallelism must be positive")
	}
	if p.SaltLength < 8 || p.KeyLength < 16 {
		return errors.New("argon2 salt must be >= 8 bytes and key >= 16 bytes")
	}
	if c.Workers <= 0 {
		return errors.New("hasher workers must be positive")
	}
	return nil
}
