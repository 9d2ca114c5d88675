package jobs

import "strings"

// lastMeaningfulLine extracts the line worth showing from a multi-line backend
// failure message. Backend tracebacks end with a generic "check the logs"
// trailer, so with two or more non-empty lines the one directly preceding the
// last carries the actual cause.
func lastMeaningfulLine(message string) string {
	lines := strings.Split(message, "\n")

	meaningful := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			meaningful = append(meaningful, trimmed)
		}
	}

	switch len(meaningful) {
	case 0:
		return "unknown error"
	case 1:
		return meaningful[0]
	default:
		return meaningful[len(meaningful)-2]
	}
}
