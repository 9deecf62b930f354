package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ServiceName:    "recipe-be",
			Port:           "8001",
			CORSOrigins:    []string{"http://localhost:3000"},
			LoginLimit:     3,
			LoginWindow:    15 * time.Minute,
			BodyLimitBytes: 4 << 20,
			LogLevel:       "info",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			SSLMode: "disable",
		},
		JWT: JWTConfig{
			AccessTTL:  10 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
		NATS: NATSConfig{
			Enabled: true,
			URL:     "nats://localhost:4222",
		},
		Storage: StorageConfig{
			Driver:    "local",
			UploadDir: "uploads",
			URLPrefix: "/uploads",
			S3Region:  "us-east-1",
		},
		Cache: CacheConfig{
			Size: 500,
			TTL:  5 * time.Minute,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "jaeger:4317",
			SampleRatio: 1,
		},
	}
}

// Load layers configuration as defaults, then an optional YAML file, then
// environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitCommaList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func splitCommaList(k *koanf.Koanf, path string) error {
	raw, ok := k.Get(path).(string)
	if !ok {
		return nil
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}

	if err := k.Set(path, values); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

var envMappings = map[string]string{
	"service_name":          "server.service_name",
	"app_port":              "server.port",
	"cors_origins":          "server.cors_origins",
	"login_limit":           "server.login_limit",
	"login_window":          "server.login_window",
	"body_limit_bytes":      "server.body_limit_bytes",
	"log_level":             "server.log_level",
	"db_user":               "database.user",
	"db_password":           "database.password",
	"db_host":               "database.host",
	"db_port":               "database.port",
	"db_name":               "database.name",
	"db_sslmode":            "database.sslmode",
	"access_token_secret":   "jwt.access_secret",
	"refresh_token_secret":  "jwt.refresh_secret",
	"access_token_ttl":      "jwt.access_ttl",
	"refresh_token_ttl":     "jwt.refresh_ttl",
	"nats_enabled":          "nats.enabled",
	"nats_url":              "nats.url",
	"storage_driver":        "storage.driver",
	"upload_dir":            "storage.upload_dir",
	"upload_url_prefix":     "storage.url_prefix",
	"s3_endpoint":           "storage.s3_endpoint",
	"aws_region":            "storage.s3_region",
	"s3_bucket_name":        "storage.s3_bucket",
	"aws_access_key_id":     "storage.s3_access_key",
	"aws_secret_access_key": "storage.s3_secret_key",
	"s3_use_path_style":     "storage.s3_path_style",
	"s3_public_url":         "storage.s3_public_url",
	"recipe_cache_size":     "cache.size",
	"recipe_cache_ttl":      "cache.ttl",
	"tracing_enabled":       "tracing.enabled",

	"otel_exporter_otlp_endpoint": "tracing.endpoint",
	"otel_traces_sampler_arg":     "tracing.sample_ratio",
}

// envTransformFunc maps known environment variables to config paths and
// drops everything else.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
