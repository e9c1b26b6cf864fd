package config

import "time"

type MapsConfig struct {
	Enabled  bool          `yaml:"enabled"`
	APIKey   string        `yaml:"api_key"`
	Country  string        `yaml:"country"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

func loadMapsConfig() *MapsConfig {
	return &MapsConfig{
		Enabled:  getEnvAsBool("MAPS_ENABLED", true),
		APIKey:   getEnv("GOOGLE_MAPS_API_KEY", ""),
		Country:  getEnv("MAPS_COUNTRY", ""),
		CacheTTL: getEnvAsDuration("MAPS_CACHE_TTL", time.Hour),
	}
}
