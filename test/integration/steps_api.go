package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cucumber/godog"

	"github.com/gantry-sh/gantry/pkg/server/middleware"
	"github.com/gantry-sh/gantry/pkg/state"
)

// registerAPISteps wires the control API step definitions.
func registerAPISteps(s *StepsContext, sc *godog.ScenarioContext) {
	sc.Step(`^I GET "([^"]*)"$`, s.iGet)
	sc.Step(`^I POST "([^"]*)" without a token$`, s.iPostWithoutToken)
	sc.Step(`^I POST "([^"]*)" with a valid token$`, s.iPostWithToken)
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response should list (\d+) services$`, s.theResponseShouldListServices)
	sc.Step(`^the response should report (\d+) services running$`, s.theResponseShouldReportRunning)
}

func (s *StepsContext) doRequest(method, path, token string) error {
	if s.handle == nil || s.handle.baseURL() == "" {
		return fmt.Errorf("control API is not running")
	}
	req, err := http.NewRequest(method, s.handle.baseURL()+path, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	s.response = resp.StatusCode
	s.responseBody, err = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return err
}

func (s *StepsContext) iGet(path string) error {
	return s.doRequest(http.MethodGet, path, "")
}

func (s *StepsContext) iPostWithoutToken(path string) error {
	return s.doRequest(http.MethodPost, path, "")
}

func (s *StepsContext) iPostWithToken(path string) error {
	token, err := middleware.IssueToken([]byte(s.apiKey), "integration", time.Minute)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	return s.doRequest(http.MethodPost, path, token)
}

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseShouldListServices(count int) error {
	var services []state.ServiceState
	if err := json.Unmarshal(s.responseBody, &services); err != nil {
		return fmt.Errorf("failed to parse services response: %w", err)
	}
	if len(services) != count {
		return fmt.Errorf("expected %d services, got %d", count, len(services))
	}
	return nil
}

func (s *StepsContext) theResponseShouldReportRunning(count int) error {
	var status struct {
		Running int `json:"running"`
	}
	if err := json.Unmarshal(s.responseBody, &status); err != nil {
		return fmt.Errorf("failed to parse status response: %w", err)
	}
	if status.Running != count {
		return fmt.Errorf("expected %d running services, got %d", count, status.Running)
	}
	return nil
}
