// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Places    PlacesConfig            `mapstructure:"places"`
	Ranking   RankingConfig           `mapstructure:"ranking"`
	Diagnosis DiagnosisConfig         `mapstructure:"diagnosis"`
	Server    ServerConfig            `mapstructure:"server"`
	Logging   LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig backs the optional sub-query cache. An empty Address disables it.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Domain Configuration Sections ---

// PlacesConfig selects and tunes the place source.
type PlacesConfig struct {
	Provider       string       `mapstructure:"provider"` // "google" or "osm"
	Timeout        int          `mapstructure:"timeout"`  // milliseconds, per sub-query
	MaxConcurrency int          `mapstructure:"max_concurrency"`
	CacheTTL       int          `mapstructure:"cache_ttl"` // milliseconds, 0 disables caching
	Google         GoogleConfig `mapstructure:"google"`
	OSM            OSMConfig    `mapstructure:"osm"`
}

type GoogleConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	DetailsLimit int    `mapstructure:"details_limit"`
	Language     string `mapstructure:"language"`
}

type OSMConfig struct {
	OverpassURL    string `mapstructure:"overpass_url"`
	NominatimURL   string `mapstructure:"nominatim_url"`
	UserAgent      string `mapstructure:"user_agent"`
	NominatimLimit int    `mapstructure:"nominatim_limit"`
}

// RankingConfig tunes the scorer and the final cut.
type RankingConfig struct {
	TopN       int     `mapstructure:"top_n"`
	MinRating  float64 `mapstructure:"min_rating"`
	MinReviews int     `mapstructure:"min_reviews"`
	// OpenNowClock is "wallclock" (process clock) or "region" (region UTC offset).
	OpenNowClock string `mapstructure:"open_now_clock"`
}

// DiagnosisConfig points at the hosted diagnostic endpoint.
type DiagnosisConfig struct {
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// ServerConfig holds the HTTP API and health/metrics listener settings.
type ServerConfig struct {
	Address        string `mapstructure:"address"`
	SessionTTL     int    `mapstructure:"session_ttl"` // milliseconds
	MaxBodyBytes   int64  `mapstructure:"max_body_bytes"`
	ReadTimeout    int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout   int    `mapstructure:"write_timeout"` // milliseconds
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
