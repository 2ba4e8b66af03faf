package config

import "time"

// Relay configures the outbox relay loop.
type Relay struct {
	BatchSize uint32        `env:"RELAY_BATCH_SIZE" envDefault:"100"`
	Interval  time.Duration `env:"RELAY_INTERVAL" envDefault:"1s"`

	// DrainTimeout is how long shutdown waits for the in-flight batch.
	DrainTimeout time.Duration `env:"RELAY_DRAIN_TIMEOUT" envDefault:"5s"`
}
