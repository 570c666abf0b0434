package orchestrator

import (
	"math"
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	t.Run("zero value gets defaults", func(t *testing.T) {
		config := Config{}
		config.ApplyDefaults()

		if config.MaxRetries != DefaultMaxRetries {
			t.Errorf("expected %d retries, got %d", DefaultMaxRetries, config.MaxRetries)
		}
		if config.BackoffBase != DefaultBackoffBase {
			t.Errorf("expected %v backoff base, got %v", DefaultBackoffBase, config.BackoffBase)
		}
	})

	t.Run("explicit values preserved", func(t *testing.T) {
		config := Config{MaxRetries: 2, BackoffBase: time.Millisecond}
		config.ApplyDefaults()

		if config.MaxRetries != 2 {
			t.Errorf("expected 2 retries, got %d", config.MaxRetries)
		}
		if config.BackoffBase != time.Millisecond {
			t.Errorf("expected 1ms backoff base, got %v", config.BackoffBase)
		}
	})

	t.Run("negative values reset to defaults", func(t *testing.T) {
		config := Config{MaxRetries: -1, BackoffBase: -time.Second}
		config.ApplyDefaults()

		if config.MaxRetries != DefaultMaxRetries {
			t.Errorf("expected %d retries, got %d", DefaultMaxRetries, config.MaxRetries)
		}
		if config.BackoffBase != DefaultBackoffBase {
			t.Errorf("expected %v backoff base, got %v", DefaultBackoffBase, config.BackoffBase)
		}
	})
}

func TestBackoff_Window(t *testing.T) {
	o := &Orchestrator{config: Config{BackoffBase: time.Second}}

	for attempt := 1; attempt <= 5; attempt++ {
		lo := time.Duration(math.Pow(2, float64(attempt)) * float64(time.Second))
		hi := lo + time.Second

		for i := 0; i < 50; i++ {
			d := o.backoff(attempt)
			if d < lo || d >= hi {
				t.Fatalf("attempt %d: backoff %v outside [%v, %v)", attempt, d, lo, hi)
			}
		}
	}
}

func TestBackoff_ScalesWithBase(t *testing.T) {
	o := &Orchestrator{config: Config{BackoffBase: time.Millisecond}}

	d := o.backoff(3)
	if d < 8*time.Millisecond || d >= 9*time.Millisecond {
		t.Fatalf("backoff %v outside [8ms, 9ms)", d)
	}
}
