package telemetry

import (
	"fmt"
	"runtime"

	"github.com/grafana/pyroscope-go"
)

// ProfilingConfig drives Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled turns the profiler on
	Enabled bool

	// ServiceName labels the profiles in the Pyroscope UI
	ServiceName string

	// ServiceVersion is attached to every profile as a tag
	ServiceVersion string

	// Endpoint is the Pyroscope server URL, e.g. "http://localhost:4040"
	Endpoint string

	// ProfileTypes selects which profiles to collect. See profileTypeNames
	// for the accepted values.
	ProfileTypes []string
}

// profileTypeNames maps config strings to Pyroscope profile types.
var profileTypeNames = map[string]pyroscope.ProfileType{
	"cpu":            pyroscope.ProfileCPU,
	"alloc_objects":  pyroscope.ProfileAllocObjects,
	"alloc_space":    pyroscope.ProfileAllocSpace,
	"inuse_objects":  pyroscope.ProfileInuseObjects,
	"inuse_space":    pyroscope.ProfileInuseSpace,
	"goroutines":     pyroscope.ProfileGoroutines,
	"mutex_count":    pyroscope.ProfileMutexCount,
	"mutex_duration": pyroscope.ProfileMutexDuration,
	"block_count":    pyroscope.ProfileBlockCount,
	"block_duration": pyroscope.ProfileBlockDuration,
}

var profilingEnabled bool

// InitProfiling starts Pyroscope continuous profiling. The returned shutdown
// function stops the profiler and must be called on exit. With cfg.Enabled
// false it is a no-op.
func InitProfiling(cfg ProfilingConfig) (shutdown func() error, err error) {
	if !cfg.Enabled {
		profilingEnabled = false
		return func() error { return nil }, nil
	}

	types := make([]pyroscope.ProfileType, 0, len(cfg.ProfileTypes))
	for _, name := range cfg.ProfileTypes {
		pt, ok := profileTypeNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown profile type: %s", name)
		}
		types = append(types, pt)

		// Mutex and block profiles need runtime sampling turned on.
		switch name {
		case "mutex_count", "mutex_duration":
			runtime.SetMutexProfileFraction(5)
		case "block_count", "block_duration":
			runtime.SetBlockProfileRate(5)
		}
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.Endpoint,
		Tags: map[string]string{
			"version": cfg.ServiceVersion,
		},
		ProfileTypes: types,
	})
	if err != nil {
		return nil, fmt.Errorf("pyroscope profiler did not start: %w", err)
	}

	profilingEnabled = true
	return profiler.Stop, nil
}

// IsProfilingEnabled reports whether the profiler is running.
func IsProfilingEnabled() bool {
	return profilingEnabled
}
