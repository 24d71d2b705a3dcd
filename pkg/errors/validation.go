package errors

import (
	"math"
	"strings"
	"unicode"
)

// MaxWorkers bounds the worker pool size accepted from user input.
const MaxWorkers = 4096

// ValidateName validates a train or segment name from a scenario file.
//
// Names are used to build "train/segment" references, so they must not
// contain the separator. The rules are:
//   - No empty names
//   - No control characters
//   - No '/' characters
//   - Maximum length of 128 characters
func ValidateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidScenario, "%s name cannot be empty", kind)
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidScenario, "%s name too long (max 128 characters): %q", kind, name[:32]+"...")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidScenario, "%s name contains invalid control characters", kind)
		}
	}

	if strings.Contains(name, "/") {
		return New(ErrCodeInvalidScenario, "%s name cannot contain '/': %q", kind, name)
	}

	return nil
}

// ValidateWorkers validates a worker pool size. Zero means "use the default"
// and is accepted.
func ValidateWorkers(n int) error {
	if n < 0 {
		return New(ErrCodeInvalidInput, "worker count cannot be negative: %d", n)
	}
	if n > MaxWorkers {
		return New(ErrCodeInvalidInput, "worker count too large (max %d): %d", MaxWorkers, n)
	}
	return nil
}

// ValidateGranularity validates the quantization step of a distribution
// dimension.
func ValidateGranularity(dim string, g int64) error {
	if g <= 0 {
		return New(ErrCodeInvalidScenario, "%s granularity must be positive: %d", dim, g)
	}
	return nil
}

// ValidatePositive validates a strictly positive, finite physical quantity
// such as a segment length or a speed.
func ValidatePositive(what string, v float64) error {
	if !(v > 0) || math.IsInf(v, 1) {
		return New(ErrCodeInvalidScenario, "%s must be positive and finite: %v", what, v)
	}
	return nil
}

// ValidateRange validates that v lies within [lo, hi].
func ValidateRange(what string, v, lo, hi float64) error {
	if !(v >= lo && v <= hi) {
		return New(ErrCodeInvalidScenario, "%s must be within [%v, %v]: %v", what, lo, hi, v)
	}
	return nil
}

// ValidateProbability validates a probability mass in [0, 1].
func ValidateProbability(what string, p float64) error {
	if p < 0 || p > 1 || p != p {
		return New(ErrCodeInvalidScenario, "%s must be within [0, 1]: %v", what, p)
	}
	return nil
}
