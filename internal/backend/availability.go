package backend

import (
	"runtime"
	"strings"
)

// Available returns a comma-separated list of useful strategies.
func Available() string {
	entries := []string{Serial}
	if runtime.GOMAXPROCS(0) > 1 {
		entries = append(entries, Parallel)
	}
	entries = append(entries, Auto)
	return strings.Join(entries, ",")
}
