// Package backend names the execution strategies and numeric precisions
// available to the batch evaluator and resolves the automatic strategy
// choice.
package backend

import (
	"fmt"
	"runtime"
	"strings"
)

const (
	Serial   = "serial"
	Parallel = "parallel"
	Auto     = "auto"
)

// autoBatchThreshold is the smallest batch for which the worker-pool
// handoff pays for itself.
const autoBatchThreshold = 4096

func Normalize(name string) (string, error) {
	strategy := strings.ToLower(strings.TrimSpace(name))
	if strategy == "" {
		return Auto, nil
	}
	switch strategy {
	case Serial, Parallel, Auto:
		return strategy, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (expected auto, serial, or parallel)", strategy)
	}
}

// Resolve maps Auto to a concrete strategy for a batch of the given size.
// Serial and Parallel pass through unchanged.
func Resolve(strategy string, batch int) string {
	if strategy != Auto {
		return strategy
	}
	if runtime.GOMAXPROCS(0) > 1 && batch >= autoBatchThreshold {
		return Parallel
	}
	return Serial
}

const (
	Float32 = "float32"
	Float64 = "float64"
)

// NormalizePrecision maps a config name to a canonical precision; empty
// selects Float64.
func NormalizePrecision(name string) (string, error) {
	precision := strings.ToLower(strings.TrimSpace(name))
	switch precision {
	case "":
		return Float64, nil
	case Float32, Float64:
		return precision, nil
	default:
		return "", fmt.Errorf("unknown precision %q (expected float32 or float64)", name)
	}
}
