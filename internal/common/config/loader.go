// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderGoogle = "google"
	ProviderOSM    = "osm"

	ClockWall   = "wallclock"
	ClockRegion = "region"

	// MaxTopN is the most garages a search returns.
	MaxTopN = 5
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml and
// applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills credentials from their conventional env names.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Places.Google.APIKey == "" {
		if val := os.Getenv("GOOGLE_MAPS_API_KEY"); val != "" {
			cfg.Places.Google.APIKey = val
		}
	}
	if cfg.Diagnosis.APIKey == "" {
		if val := os.Getenv("DIAGNOSIS_API_KEY"); val != "" {
			cfg.Diagnosis.APIKey = val
		}
	}
	if cfg.Diagnosis.URL == "" {
		if val := os.Getenv("DIAGNOSIS_URL"); val != "" {
			cfg.Diagnosis.URL = val
		}
	}
	if cfg.Database.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Database.Redis.Address = val
		}
	}
	if cfg.Camunda.BrokerAddress == "" {
		if val := os.Getenv("ZEEBE_ADDRESS"); val != "" {
			cfg.Camunda.BrokerAddress = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "garage-advisor"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.Places.Provider == "" {
		cfg.Places.Provider = ProviderOSM
	}
	if cfg.Places.Timeout == 0 {
		cfg.Places.Timeout = 10000
	}
	if cfg.Places.MaxConcurrency == 0 {
		cfg.Places.MaxConcurrency = 6
	}
	if cfg.Places.Google.BaseURL == "" {
		cfg.Places.Google.BaseURL = "https://maps.googleapis.com/maps/api/place"
	}
	if cfg.Places.Google.DetailsLimit == 0 {
		cfg.Places.Google.DetailsLimit = 15
	}
	if cfg.Places.OSM.OverpassURL == "" {
		cfg.Places.OSM.OverpassURL = "https://overpass-api.de/api/interpreter"
	}
	if cfg.Places.OSM.NominatimURL == "" {
		cfg.Places.OSM.NominatimURL = "https://nominatim.openstreetmap.org/search"
	}
	if cfg.Places.OSM.UserAgent == "" {
		cfg.Places.OSM.UserAgent = "garage-advisor/1.0"
	}
	if cfg.Places.OSM.NominatimLimit == 0 {
		cfg.Places.OSM.NominatimLimit = 10
	}

	if cfg.Ranking.TopN == 0 {
		cfg.Ranking.TopN = 5
	}
	if cfg.Ranking.MinRating == 0 {
		cfg.Ranking.MinRating = 3.5
	}
	if cfg.Ranking.MinReviews == 0 {
		cfg.Ranking.MinReviews = 3
	}
	if cfg.Ranking.OpenNowClock == "" {
		cfg.Ranking.OpenNowClock = ClockWall
	}

	if cfg.Diagnosis.Timeout == 0 {
		cfg.Diagnosis.Timeout = 60000
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = 1800000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 64 << 10
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 90000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields. A missing Google
// API key is not rejected here; the google source reports it as a
// configuration error when it is selected.
func validateConfig(cfg *Config) error {
	switch cfg.Places.Provider {
	case ProviderGoogle, ProviderOSM:
	default:
		return fmt.Errorf("places.provider must be %q or %q, got %q", ProviderGoogle, ProviderOSM, cfg.Places.Provider)
	}

	switch cfg.Ranking.OpenNowClock {
	case ClockWall, ClockRegion:
	default:
		return fmt.Errorf("ranking.open_now_clock must be %q or %q, got %q", ClockWall, ClockRegion, cfg.Ranking.OpenNowClock)
	}

	if cfg.Ranking.TopN < 0 || cfg.Ranking.TopN > MaxTopN {
		return fmt.Errorf("ranking.top_n must be between 1 and %d, got %d", MaxTopN, cfg.Ranking.TopN)
	}
	if cfg.Places.MaxConcurrency < 0 {
		return fmt.Errorf("places.max_concurrency must be positive")
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
