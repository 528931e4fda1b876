package endpoint

import (
	"iter"
	"strconv"
	"strings"
	"unicode"
)

// Markers the backend prints once it listens, e.g.
// "Running TodoErrWeb.Endpoint with Bandit 1.8.0 at 127.0.0.1:54321 (http)".
const (
	markerRunning  = "Running"
	markerLoopback = "127.0.0.1:"
)

// ParsePort extracts the announced port from a backend stdout line.
// The port is the text after the first loopback marker up to the next
// whitespace or end of line, and must be a decimal in 1..65535.
func ParsePort(line string) (string, bool) {
	if !strings.Contains(line, markerRunning) {
		return "", false
	}
	_, rest, found := strings.Cut(line, markerLoopback)
	if !found {
		return "", false
	}
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		rest = rest[:i]
	}
	if len(rest) == 0 || len(rest) > 5 {
		return "", false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > 65535 {
		return "", false
	}
	return rest, true
}

// FindPort returns the port from the first matching line.
func FindPort(lines iter.Seq[string]) (string, bool) {
	for line := range lines {
		if port, ok := ParsePort(line); ok {
			return port, true
		}
	}
	return "", false
}
