package config

import "time"

type EmailConfig struct {
	Provider string        `yaml:"provider"` // http, smtp, none
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	SMTP     *SMTPConfig   `yaml:"smtp"`
}

type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

func loadEmailConfig() *EmailConfig {
	return &EmailConfig{
		Provider: getEnv("EMAIL_PROVIDER", "http"),
		Endpoint: getEnv("EMAIL_ENDPOINT", "http://localhost:3000/api/send-email"),
		APIKey:   getEnv("EMAIL_API_KEY", ""),
		Timeout:  getEnvAsDuration("EMAIL_TIMEOUT", 10*time.Second),
		SMTP: &SMTPConfig{
			Host:      getEnv("SMTP_HOST", "localhost"),
			Port:      getEnvAsInt("SMTP_PORT", 587),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			FromEmail: getEnv("SMTP_FROM_EMAIL", "noreply@campusride.app"),
			FromName:  getEnv("SMTP_FROM_NAME", "CampusRide"),
		},
	}
}
