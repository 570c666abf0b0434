package archive

import (
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Enabled {
		t.Error("expected sweeper disabled by default")
	}
	if cfg.MaxAge != 24*time.Hour {
		t.Errorf("expected max_age 24h, got %v", cfg.MaxAge)
	}
	if cfg.Interval != time.Hour {
		t.Errorf("expected interval 1h, got %v", cfg.Interval)
	}
	if cfg.BatchSize != 100 {
		t.Errorf("expected batch_size 100, got %d", cfg.BatchSize)
	}
}

func TestConfig_ApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		MaxAge:    time.Minute,
		Interval:  time.Second,
		BatchSize: 7,
	}
	cfg.ApplyDefaults()

	if cfg.MaxAge != time.Minute || cfg.Interval != time.Second || cfg.BatchSize != 7 {
		t.Errorf("defaults overwrote explicit values: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "disabled is always valid",
			cfg:     Config{Enabled: false, Interval: -1},
			wantErr: false,
		},
		{
			name: "enabled with defaults",
			cfg: Config{
				Enabled:   true,
				MaxAge:    24 * time.Hour,
				Interval:  time.Hour,
				BatchSize: 100,
			},
			wantErr: false,
		},
		{
			name: "enabled without interval",
			cfg: Config{
				Enabled:   true,
				MaxAge:    24 * time.Hour,
				BatchSize: 100,
			},
			wantErr: true,
		},
		{
			name: "enabled with negative max_age",
			cfg: Config{
				Enabled:   true,
				MaxAge:    -time.Hour,
				Interval:  time.Hour,
				BatchSize: 100,
			},
			wantErr: true,
		},
		{
			name: "enabled without batch_size",
			cfg: Config{
				Enabled:  true,
				MaxAge:   24 * time.Hour,
				Interval: time.Hour,
			},
			wantErr: true,
		},
		{
			name: "s3 bucket without region or endpoint",
			cfg: Config{
				Enabled:   true,
				MaxAge:    24 * time.Hour,
				Interval:  time.Hour,
				BatchSize: 100,
				S3:        S3Config{Bucket: "archive"},
			},
			wantErr: true,
		},
		{
			name: "s3 bucket with custom endpoint",
			cfg: Config{
				Enabled:   true,
				MaxAge:    24 * time.Hour,
				Interval:  time.Hour,
				BatchSize: 100,
				S3:        S3Config{Bucket: "archive", Endpoint: "http://localhost:9000"},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestS3Config_Configured(t *testing.T) {
	if (&S3Config{}).Configured() {
		t.Error("empty config should not be configured")
	}
	if !(&S3Config{Bucket: "b"}).Configured() {
		t.Error("config with bucket should be configured")
	}
}
