package utils

import "strings"

// IsNetworkError checks if an error message indicates a common network error
// that should be handled gracefully (not logged as severe errors).
func IsNetworkError(errStr string) bool {
	return strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "connection reset by peer") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close")
}

// IsWireError checks if an error message indicates a wire-protocol violation
// (bad greeting, malformed Mux frame) rather than a transport-level failure.
func IsWireError(errStr string) bool {
	return strings.Contains(errStr, "short buffer") ||
		strings.Contains(errStr, "incomplete") ||
		strings.Contains(errStr, "malformed frame") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "unsupported command") ||
		strings.Contains(errStr, "unsupported address type")
}

// ContainsAny checks if a string contains any of the given substrings.
func ContainsAny(s string, substrings ...string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
