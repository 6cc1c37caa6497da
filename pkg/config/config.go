package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the clinical alerts service
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Registry   RegistryConfig   `mapstructure:"registry"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	LogLevel   string           `mapstructure:"log_level"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// RegistryConfig holds the persistence collaborator configuration.
// RequestTimeout and MaxRetries are additions over the legacy client,
// which relied on transport defaults; retries default to off.
type RegistryConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	PatientBaseURL string `mapstructure:"patient_base_url"`
	RequestTimeout int    `mapstructure:"request_timeout"`
	MaxRetries     int    `mapstructure:"max_retries"`
}

// MonitoringConfig holds metrics endpoint configuration
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
	HealthPath  string `mapstructure:"health_path"`
}

// Load loads configuration from config files and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/clinic-alerts")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideWithEnv(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)

	viper.SetDefault("registry.request_timeout", 15)
	viper.SetDefault("registry.max_retries", 0)

	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
	viper.SetDefault("monitoring.health_path", "/health")

	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if baseURL := os.Getenv("REGISTRY_BASE_URL"); baseURL != "" {
		config.Registry.BaseURL = baseURL
	}

	if patientURL := os.Getenv("PATIENT_DIRECTORY_URL"); patientURL != "" {
		config.Registry.PatientBaseURL = patientURL
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Registry.BaseURL == "" {
		return fmt.Errorf("registry base URL is required")
	}

	if config.Registry.PatientBaseURL == "" {
		// The patient directory usually lives behind the same gateway
		config.Registry.PatientBaseURL = config.Registry.BaseURL
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Registry.RequestTimeout <= 0 {
		return fmt.Errorf("invalid registry request timeout: %d", config.Registry.RequestTimeout)
	}

	if config.Registry.MaxRetries < 0 {
		return fmt.Errorf("invalid registry max retries: %d", config.Registry.MaxRetries)
	}

	return nil
}
