package config

type WebSocketConfig struct {
	Path           string   `yaml:"path"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RedisRelay fans live messages out across instances via redis pub/sub.
	RedisRelay bool `yaml:"redis_relay"`
}

func loadWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{
		Path:           getEnv("WEBSOCKET_PATH", "/ws"),
		AllowedOrigins: getEnvAsSlice("WEBSOCKET_ALLOWED_ORIGINS", []string{"*"}),
		RedisRelay:     getEnvAsBool("WEBSOCKET_REDIS_RELAY", false),
	}
}
