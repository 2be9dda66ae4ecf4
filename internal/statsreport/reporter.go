// Package statsreport implements the optional fire-and-forget traffic
// report named in spec.md §4.2 / §6: a background POST of
// {uuid, uplink, downlink} that never blocks the tunnel and never
// retries.
package statsreport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/brimtide/vlesstund/internal/shared/constants"
)

type payload struct {
	UUID     string `json:"uuid"`
	Uplink   uint64 `json:"uplink"`
	Downlink uint64 `json:"downlink"`
}

// Reporter posts traffic totals to one configured endpoint.
type Reporter struct {
	url    string
	token  string
	client *http.Client
	logger *zap.Logger
}

func New(url, token string, logger *zap.Logger) *Reporter {
	return &Reporter{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: constants.StatsReportTimeout},
		logger: logger,
	}
}

// Report sends one {uuid, uplink, downlink} report. Errors are logged
// at Debug and never surfaced — per spec.md §7, background tasks never
// propagate failures to the tunnel.
func (rp *Reporter) Report(uuid string, uplink, downlink uint64) {
	body, err := json.Marshal(payload{UUID: uuid, Uplink: uplink, Downlink: downlink})
	if err != nil {
		rp.logger.Debug("stats report marshal failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.StatsReportTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rp.url, bytes.NewReader(body))
	if err != nil {
		rp.logger.Debug("stats report request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if rp.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", rp.token))
	}

	resp, err := rp.client.Do(req)
	if err != nil {
		rp.logger.Debug("stats report failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		rp.logger.Debug("stats report non-2xx", zap.Int("status", resp.StatusCode))
	}
}
