package contracts

import "fmt"

// ConfigurationError is a fatal run configuration problem: unknown factor
// name, percentile outside (0,1), non-positive horizon. The run aborts before
// any stage executes.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Message)
}

// StructuralError is a fatal upstream contract breach detected inside the
// pipeline: duplicate (date,ticker) keys after a merge, a non-monotonic date
// index. Unlike a data-quality warning it aborts the run immediately.
type StructuralError struct {
	Stage   string
	Message string
}

func (e StructuralError) Error() string {
	return fmt.Sprintf("structural: %s: %s", e.Stage, e.Message)
}
