package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StaticProvider authorizes a fixed list of UUIDs configured at startup
// (the UUID/DEV_MODE environment pair). Priority 0: it always wins merge
// conflicts against remote providers.
type StaticProvider struct {
	uuids []string
}

// NewStaticProvider normalizes uuids to lowercase once, at construction.
func NewStaticProvider(uuids ...string) *StaticProvider {
	normalized := make([]string, 0, len(uuids))
	for _, u := range uuids {
		if u == "" {
			continue
		}
		normalized = append(normalized, strings.ToLower(u))
	}
	return &StaticProvider{uuids: normalized}
}

func (p *StaticProvider) Name() string     { return "static" }
func (p *StaticProvider) Priority() int    { return 0 }
func (p *StaticProvider) IsAvailable() bool { return len(p.uuids) > 0 }

func (p *StaticProvider) FetchUUIDs(ctx context.Context) ([]string, error) {
	return p.uuids, nil
}

// LoadUUIDsFromFile reads a STATIC_UUIDS_FILE: a plain YAML list of
// UUID strings, for allow-lists too large to pass through the UUID
// environment variable.
//
//	- "a1b2c3d4-..."
//	- "e5f6a7b8-..."
func LoadUUIDsFromFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read static UUIDs file: %w", err)
	}

	var uuids []string
	if err := yaml.Unmarshal(data, &uuids); err != nil {
		return nil, fmt.Errorf("failed to parse static UUIDs file: %w", err)
	}
	return uuids, nil
}
