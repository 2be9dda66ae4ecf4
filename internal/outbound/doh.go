package outbound

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/brimtide/vlesstund/internal/metrics"
	"github.com/brimtide/vlesstund/internal/shared/constants"
)

// DoHClient issues DNS-over-HTTPS queries (RFC 8484) against one
// endpoint, shared across every UDP/DNS sub-connection and the non-Mux
// DNS mode so they don't each build their own *http.Client.
type DoHClient struct {
	endpoint string
	client   *http.Client
}

func NewDoHClient(endpoint string) *DoHClient {
	return &DoHClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: constants.DoHTimeout},
	}
}

// Query POSTs query as application/dns-message and returns the raw
// response body, within the 5s hard ceiling spec.md §5 requires.
func (d *DoHClient) Query(ctx context.Context, query []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DoHTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("build DoH request: %w", err)
	}
	req.Header.Set("Content-Type", "application/dns-message")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("DoH query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DoH query: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read DoH response: %w", err)
	}

	metrics.DoHQueriesTotal.Inc()
	return body, nil
}
