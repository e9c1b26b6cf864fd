package config

import "time"

type OutboxConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
	MaxAttempts  int           `yaml:"max_attempts"`
	BaseBackoff  time.Duration `yaml:"base_backoff"`
	MaxBackoff   time.Duration `yaml:"max_backoff"`
	LeaseTimeout time.Duration `yaml:"lease_timeout"`
}

func loadOutboxConfig() *OutboxConfig {
	return &OutboxConfig{
		PollInterval: getEnvAsDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize:    getEnvAsInt("OUTBOX_BATCH_SIZE", 20),
		MaxAttempts:  getEnvAsInt("OUTBOX_MAX_ATTEMPTS", 8),
		BaseBackoff:  getEnvAsDuration("OUTBOX_BASE_BACKOFF", time.Second),
		MaxBackoff:   getEnvAsDuration("OUTBOX_MAX_BACKOFF", 5*time.Minute),
		LeaseTimeout: getEnvAsDuration("OUTBOX_LEASE_TIMEOUT", time.Minute),
	}
}
