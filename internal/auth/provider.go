// Package auth implements the tiered UUID authorization store: providers
// that supply authorized UUIDs, an L1/L2 cache in front of them, and the
// validator factory the wire parser uses to accept or reject a greeting.
package auth

import "context"

// Provider is the capability set every UUID source implements: a static
// list, a Remnawave-style remote panel, or a generic HTTP endpoint.
type Provider interface {
	Name() string
	// Priority orders providers during merge; lower wins on conflict.
	Priority() int
	// FetchUUIDs returns the set of UUIDs this provider currently
	// authorizes. The returned slice is already normalized to lowercase
	// hyphenated form.
	FetchUUIDs(ctx context.Context) ([]string, error)
	IsAvailable() bool
}
