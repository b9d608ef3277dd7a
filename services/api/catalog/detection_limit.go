package catalog

import (
	"fmt"
	"strings"
)

// DetectionLimitMethod selects how the measurement service treats values
// censored at a detection limit. The imputation itself runs in the service.
type DetectionLimitMethod string

const (
	DetectionLimitNone  DetectionLimitMethod = ""
	DetectionLimitHalf  DetectionLimitMethod = "half"
	DetectionLimitTrend DetectionLimitMethod = "trend"
)

// ParseDetectionLimitMethod validates a user supplied method name.
func ParseDetectionLimitMethod(s string) (DetectionLimitMethod, error) {
	switch m := DetectionLimitMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case DetectionLimitNone, DetectionLimitHalf, DetectionLimitTrend:
		return m, nil
	default:
		return DetectionLimitNone, fmt.Errorf("%w: %q", ErrInvalidDetectionLimitMethod, s)
	}
}

// CensoredValue resolves a value still carrying a "<" or ">" qualifier.
// Under the half method a below-limit value becomes half the limit; otherwise
// the limit itself is used.
func (m DetectionLimitMethod) CensoredValue(qualifier byte, limit float64) float64 {
	if qualifier == '<' && m == DetectionLimitHalf {
		return limit / 2
	}
	return limit
}
