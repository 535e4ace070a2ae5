package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studio/internal/automation"
	"studio/internal/config"
)

// APIClient talks to a running `studio serve` instance.
type APIClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewAPIClient builds a client from the loaded config. The server is
// assumed local when the bind address has no host part.
func NewAPIClient(cfg *config.Config) *APIClient {
	addr := cfg.BindAddr()
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	token := ""
	if len(cfg.HTTPTokens) > 0 {
		token = cfg.HTTPTokens[0]
	}
	return &APIClient{
		baseURL: "http://" + addr,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *APIClient) do(method, path string, out any) error {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if method == http.MethodPost || method == http.MethodPut {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("is the server running? %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s", apiErr.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// ListAutomations fetches the server's progress snapshot.
func (c *APIClient) ListAutomations() ([]automation.Progress, error) {
	var resp struct {
		Automations []automation.Progress `json:"automations"`
	}
	if err := c.do(http.MethodGet, "/api/automations", &resp); err != nil {
		return nil, err
	}
	return resp.Automations, nil
}

// ClearAutomations removes finished automations server-side and returns
// what remains.
func (c *APIClient) ClearAutomations() ([]automation.Progress, error) {
	var resp struct {
		Automations []automation.Progress `json:"automations"`
	}
	if err := c.do(http.MethodPost, "/api/automations/clear", &resp); err != nil {
		return nil, err
	}
	return resp.Automations, nil
}

// RemoveAutomation deletes one automation from the server's store.
func (c *APIClient) RemoveAutomation(id string) error {
	return c.do(http.MethodDelete, "/api/automations/"+id, nil)
}
