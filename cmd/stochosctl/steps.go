package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSteps parses a comma-separated step-size vector. An empty string
// means "use the strategy default".
func parseSteps(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	steps := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty step size in %q", raw)
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid step size %q: %w", part, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("step size must be > 0, got %v", v)
		}
		steps = append(steps, v)
	}
	return steps, nil
}
