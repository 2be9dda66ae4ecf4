package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/brimtide/vlesstund/internal/shared/constants"
)

// GenericProvider fetches a plain UUID list from an arbitrary HTTP
// endpoint that returns either `[...]` or `{uuids:[...]}`.
type GenericProvider struct {
	name     string
	url      string
	priority int
	client   *http.Client
}

func NewGenericProvider(name, url string, priority int) *GenericProvider {
	return &GenericProvider{
		name:     name,
		url:      url,
		priority: priority,
		client:   &http.Client{Timeout: constants.DefaultProviderFetchTimeout},
	}
}

func (p *GenericProvider) Name() string     { return p.name }
func (p *GenericProvider) Priority() int    { return p.priority }
func (p *GenericProvider) IsAvailable() bool { return p.url != "" }

type genericEnvelope struct {
	UUIDs []string `json:"uuids"`
}

func (p *GenericProvider) FetchUUIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultProviderFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch uuids: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch uuids: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var bare []string
	if err := json.Unmarshal(body, &bare); err == nil {
		return normalizeAll(bare), nil
	}

	var env genericEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode uuids response: %w", err)
	}
	return normalizeAll(env.UUIDs), nil
}

func normalizeAll(uuids []string) []string {
	out := make([]string, 0, len(uuids))
	for _, u := range uuids {
		if isValidUUID(u) {
			out = append(out, strings.ToLower(u))
		}
	}
	return out
}
