package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// defaultServer returns the TALLY_SERVER_URL environment variable, or the
// local development default.
func defaultServer() string {
	if server := os.Getenv("TALLY_SERVER_URL"); server != "" {
		return server
	}
	return "http://localhost:8080"
}

// getJSON fetches rawURL and decodes the body into dest. Non-200 responses
// are turned into errors using the server's error envelope.
func getJSON(rawURL string, dest interface{}) error {
	resp, err := http.Get(rawURL)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var envelope map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		if message := envelope["error"]; message != "" {
			return fmt.Errorf("%s (status %d)", message, resp.StatusCode)
		}
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}

// filterQuery turns "org_id=7,public=true" into query parameters.
func filterQuery(raw string) (url.Values, error) {
	values := url.Values{}
	if raw == "" {
		return values, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found || key == "" {
			return nil, fmt.Errorf("malformed filter %q, want key=value", pair)
		}
		values.Set(key, value)
	}
	return values, nil
}

// splitNames splits a comma-separated list, dropping empty entries.
func splitNames(raw string) []string {
	if raw == "" {
		return nil
	}
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}
