package archive

import (
	"fmt"
	"time"
)

const (
	// DefaultMaxAge is how long a COMPLETED call is kept before the sweeper
	// archives it.
	DefaultMaxAge = 24 * time.Hour

	// DefaultInterval is the pause between retention passes.
	DefaultInterval = time.Hour

	// DefaultBatchSize caps the number of calls archived per pass.
	DefaultBatchSize = 100
)

// S3Config describes the optional export target for archived calls. Export
// is active when a bucket is configured; with an empty bucket calls are
// archived in place without leaving the database.
type S3Config struct {
	// Bucket is the target bucket. Empty disables export.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// Region is the AWS region. May be empty for S3-compatible endpoints
	// that ignore it.
	Region string `mapstructure:"region" yaml:"region"`

	// Endpoint overrides the AWS endpoint for S3-compatible storage
	// (MinIO, LocalStack). Empty uses AWS.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Prefix is prepended to every object key.
	Prefix string `mapstructure:"prefix" yaml:"prefix"`

	// AccessKeyID and SecretAccessKey are static credentials. When empty the
	// default AWS credential chain is used.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`

	// ForcePathStyle addresses the bucket in the URL path instead of the
	// hostname. Custom endpoints get path-style addressing regardless.
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style"`
}

// Configured reports whether an export target is set.
func (c *S3Config) Configured() bool {
	return c.Bucket != ""
}

// Config holds the retention sweeper settings.
type Config struct {
	// Enabled turns the sweeper on. Off by default: archiving is an
	// operational opt-in.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// MaxAge is the minimum age (since last update) of a COMPLETED call
	// before it is archived.
	MaxAge time.Duration `mapstructure:"max_age" yaml:"max_age"`

	// Interval is the pause between retention passes.
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`

	// BatchSize caps the calls archived per pass; the remainder waits for
	// the next tick.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`

	// S3 is the optional export target.
	S3 S3Config `mapstructure:"s3" yaml:"s3"`
}

// ApplyDefaults fills in missing configuration with default values.
func (c *Config) ApplyDefaults() {
	if c.MaxAge == 0 {
		c.MaxAge = DefaultMaxAge
	}
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
}

// Validate checks the configuration for consistency. A disabled sweeper is
// always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MaxAge <= 0 {
		return fmt.Errorf("max_age must be positive, got %s", c.MaxAge)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.S3.Configured() && c.S3.Region == "" && c.S3.Endpoint == "" {
		return fmt.Errorf("s3 export needs a region or a custom endpoint")
	}
	return nil
}
