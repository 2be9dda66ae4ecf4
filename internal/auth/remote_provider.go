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

// RemoteProvider talks to a Remnawave-style panel: GET {apiURL}/api/users
// with a bearer token. The response may take any of several shapes; all
// are tolerated.
type RemoteProvider struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewRemoteProvider builds a provider with the default 10s fetch ceiling.
func NewRemoteProvider(apiURL, apiKey string) *RemoteProvider {
	return &RemoteProvider{
		apiURL: strings.TrimRight(apiURL, "/"),
		apiKey: apiKey,
		client: &http.Client{Timeout: constants.DefaultProviderFetchTimeout},
	}
}

func (p *RemoteProvider) Name() string  { return "remote" }
func (p *RemoteProvider) Priority() int { return 10 }

func (p *RemoteProvider) IsAvailable() bool {
	return p.apiURL != "" && p.apiKey != ""
}

type remoteUser struct {
	VlessUUID string `json:"vlessUuid"`
	Enabled   *bool  `json:"enabled"`
	Status    string `json:"status"`
}

// remoteEnvelope covers every documented response shape: {response:{users}},
// {users}, {data}, or a bare array — decoded by trying each field in turn.
type remoteEnvelope struct {
	Response struct {
		Users []remoteUser `json:"users"`
	} `json:"response"`
	Users []remoteUser `json:"users"`
	Data  []remoteUser `json:"data"`
}

func (p *RemoteProvider) FetchUUIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultProviderFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+"/api/users", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch users: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	users, err := decodeRemoteUsers(body)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(users))
	for _, u := range users {
		if !isAcceptedUser(u) {
			continue
		}
		out = append(out, strings.ToLower(u.VlessUUID))
	}
	return out, nil
}

func decodeRemoteUsers(body []byte) ([]remoteUser, error) {
	var bare []remoteUser
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var env remoteEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode users response: %w", err)
	}
	switch {
	case len(env.Response.Users) > 0:
		return env.Response.Users, nil
	case len(env.Users) > 0:
		return env.Users, nil
	default:
		return env.Data, nil
	}
}

func isAcceptedUser(u remoteUser) bool {
	if !isValidUUID(u.VlessUUID) {
		return false
	}
	if u.Enabled != nil && !*u.Enabled {
		return false
	}
	if strings.EqualFold(u.Status, "disabled") {
		return false
	}
	return true
}
