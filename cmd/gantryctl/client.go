package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gantry-sh/gantry/pkg/config"
	"github.com/gantry-sh/gantry/pkg/server"
	"github.com/gantry-sh/gantry/pkg/server/middleware"
)

// apiClient talks to the control API of a running supervisor.
type apiClient struct {
	base   string
	apiKey string
	http   *http.Client
}

// discoverAPI locates the running supervisor through the state directory's
// discovery file.
func discoverAPI(cfg *config.Config) (*apiClient, error) {
	d, err := server.ReadDiscovery(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("no running supervisor found (is the stack up?): %w", err)
	}
	return &apiClient{
		base:   d.BaseURL(),
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: 5 * time.Second},
	}, nil
}

// getJSON fetches a read endpoint into out.
func (c *apiClient) getJSON(path string, out interface{}) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s: %s", path, resp.Status, bytes.TrimSpace(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// post calls a mutating endpoint with a freshly minted token.
func (c *apiClient) post(path string) error {
	if c.apiKey == "" {
		return fmt.Errorf("no API key configured; set GANTRY_API_KEY or api_key in the config file")
	}
	token, err := middleware.IssueToken([]byte(c.apiKey), "gantryctl", time.Minute)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s: %s", path, resp.Status, bytes.TrimSpace(body))
	}
	return nil
}
