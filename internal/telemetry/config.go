package telemetry

// Config holds OpenTelemetry tracing configuration.
type Config struct {
	// Enabled turns trace export on
	Enabled bool

	// ServiceName reported to the trace backend
	ServiceName string

	// ServiceVersion reported to the trace backend
	ServiceVersion string

	// Endpoint is the OTLP/gRPC collector address (e.g., "localhost:4317")
	Endpoint string

	// Insecure disables TLS on the collector connection
	Insecure bool

	// SampleRate is the fraction of traces to sample, 0.0 to 1.0
	SampleRate float64
}

// DefaultConfig returns the tracing defaults: disabled, full sampling,
// plaintext local collector.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    instrumentationName,
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
