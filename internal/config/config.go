package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	JWT      JWTConfig      `koanf:"jwt"`
	NATS     NATSConfig     `koanf:"nats"`
	Storage  StorageConfig  `koanf:"storage"`
	Cache    CacheConfig    `koanf:"cache"`
	Tracing  TracingConfig  `koanf:"tracing"`
}

type ServerConfig struct {
	ServiceName    string        `koanf:"service_name"`
	Port           string        `koanf:"port"`
	CORSOrigins    []string      `koanf:"cors_origins"`
	LoginLimit     int           `koanf:"login_limit"`
	LoginWindow    time.Duration `koanf:"login_window"`
	BodyLimitBytes int           `koanf:"body_limit_bytes"`
	LogLevel       string        `koanf:"log_level"`
}

type DatabaseConfig struct {
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	Name     string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`
}

// URL builds the pgx connection string.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Name, d.SSLMode,
	)
}

type JWTConfig struct {
	AccessSecret  string        `koanf:"access_secret"`
	RefreshSecret string        `koanf:"refresh_secret"`
	AccessTTL     time.Duration `koanf:"access_ttl"`
	RefreshTTL    time.Duration `koanf:"refresh_ttl"`
}

type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
}

type StorageConfig struct {
	// Driver is "local" or "s3".
	Driver      string `koanf:"driver"`
	UploadDir   string `koanf:"upload_dir"`
	URLPrefix   string `koanf:"url_prefix"`
	S3Endpoint  string `koanf:"s3_endpoint"`
	S3Region    string `koanf:"s3_region"`
	S3Bucket    string `koanf:"s3_bucket"`
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`
	S3PathStyle bool   `koanf:"s3_path_style"`
	S3PublicURL string `koanf:"s3_public_url"`
}

type CacheConfig struct {
	Size int           `koanf:"size"`
	TTL  time.Duration `koanf:"ttl"`
}

// TracingConfig.SampleRatio is the fraction of new root traces recorded.
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

func (c *Config) Validate() error {
	var errs []error

	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		errs = append(errs, errors.New("jwt: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("jwt: token lifetimes must be positive"))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, errors.New("tracing: sample ratio must be between 0 and 1"))
	}
	if c.Cache.Size <= 0 {
		errs = append(errs, errors.New("cache: size must be positive"))
	}

	switch c.Storage.Driver {
	case "local":
		if c.Storage.UploadDir == "" {
			errs = append(errs, errors.New("storage: UPLOAD_DIR is required for the local driver"))
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("storage: S3_BUCKET_NAME is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage: unknown driver %q", c.Storage.Driver))
	}

	return errors.Join(errs...)
}
