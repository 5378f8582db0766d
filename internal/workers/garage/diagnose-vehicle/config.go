// internal/workers/garage/diagnose-vehicle/config.go
package diagnosevehicle

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
