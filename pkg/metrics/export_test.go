package metrics

// ResetRegistry clears the process-wide registry so tests can exercise both
// the enabled and disabled paths.
func ResetRegistry() { reset() }
