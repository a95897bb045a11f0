package nutrition

import "errors"

// Domain errors for preference validation

var (
	ErrNegativeMeasurement = errors.New("height, weight and lila must not be negative")
	ErrNegativeAge         = errors.New("age must not be negative")

	ErrPreferenceNotFound = errors.New("preference not found")
)
