package cli

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/brimtide/vlesstund/internal/cli/ui"
)

var (
	uuidsServerURL string
	uuidsAPIKey    string
	uuidsRefresh   bool
)

var uuidsCmd = &cobra.Command{
	Use:   "uuids",
	Short: "Show the running server's authorized UUID set",
	Long: `Query a running vlesstund server's /api/uuids endpoint and render
the current authorized UUID set as a table sorted by UUID, with the
provider that authorized each entry.`,
	RunE: runUUIDs,
}

func init() {
	rootCmd.AddCommand(uuidsCmd)
	uuidsCmd.Flags().StringVar(&uuidsServerURL, "server", getEnvString("VLESSTUND_ADMIN_URL", "http://127.0.0.1:8080"), "Admin base URL (env: VLESSTUND_ADMIN_URL)")
	uuidsCmd.Flags().StringVar(&uuidsAPIKey, "api-key", os.Getenv("API_KEY"), "Admin API key (env: API_KEY)")
	uuidsCmd.Flags().BoolVar(&uuidsRefresh, "refresh", false, "Force a provider re-fetch before listing")
}

type uuidsResponse struct {
	UUIDs map[string]string `json:"uuids"`
	Count int               `json:"count"`
}

func runUUIDs(cmd *cobra.Command, args []string) error {
	if uuidsAPIKey == "" {
		fmt.Println(ui.Warning("no API key supplied (--api-key or API_KEY); request will likely be rejected"))
	}

	path := "/api/uuids"
	if uuidsRefresh {
		path = "/api/uuids/refresh"
	}

	req, err := http.NewRequest(http.MethodGet, uuidsServerURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", uuidsAPIKey)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var out uuidsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	keys := make([]string, 0, len(out.UUIDs))
	for k := range out.UUIDs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := ui.NewTable([]string{"UUID", "PROVIDER"}).WithTitle(fmt.Sprintf("Authorized UUIDs (%d)", out.Count))
	for _, k := range keys {
		table.AddRow([]string{k, out.UUIDs[k]})
	}
	table.Print()

	return nil
}
