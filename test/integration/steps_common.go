package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"

	"github.com/projectbackend/backend/pkg/model"
	gormstore "github.com/projectbackend/backend/pkg/server/store/gorm"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	serverURL    string
	response     *http.Response
	responseBody []byte
	token        string
	saved        map[string]string
	instances    []*ServerInstance
	statuses     []int
	counted      int
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:        tc,
		serverURL: tc.ServerURL,
		saved:     make(map[string]string),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.tc.Reset()
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		for _, instance := range s.instances {
			instance.Stop()
		}
		return ctx, nil
	})

	// Background steps
	sc.Step(`^the backend is running$`, s.theBackendIsRunning)
	sc.Step(`^a user "([^"]*)" named "([^"]*)" with password "([^"]*)" exists$`, s.aUserExists)
	sc.Step(`^a site "([^"]*)" named "([^"]*)" exists$`, s.aSiteExists)

	// Request steps
	sc.Step(`^I send a (GET|POST|PUT|DELETE) request to "([^"]*)"$`, s.iSendARequestTo)
	sc.Step(`^I send a (GET|POST|PUT|DELETE) request to "([^"]*)" with body:$`, s.iSendARequestWithBody)
	sc.Step(`^I send (\d+) concurrent (POST|PUT) requests to "([^"]*)" with body:$`, s.iSendConcurrentRequests)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, s.theResponseHeaderShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.theResponseFieldShouldBe)
	sc.Step(`^the response should be a list of (\d+) items?$`, s.theResponseShouldBeAListOf)
	sc.Step(`^the response should not contain "([^"]*)"$`, s.theResponseShouldNotContain)
	sc.Step(`^I save the response field "([^"]*)" as "([^"]*)"$`, s.iSaveTheResponseField)
	sc.Step(`^exactly (\d+) responses? should have status (\d+)$`, s.exactlyResponsesShouldHaveStatus)
	sc.Step(`^the other responses should have status (\d+)$`, s.theOtherResponsesShouldHaveStatus)

	s.registerSessionSteps(sc)
}

// iSendConcurrentRequests fires identical requests at once and keeps every
// status code for the response-count steps
func (s *StepsContext) iSendConcurrentRequests(count int, method, path string, body *godog.DocString) error {
	payload := s.expand(body.Content)
	url := s.serverURL + s.expand(path)

	s.statuses = make([]int, count)
	errs := make([]error, count)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start

			req, err := http.NewRequest(method, url, strings.NewReader(payload))
			if err != nil {
				errs[i] = err
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-API-Key", s.token)

			resp, err := s.tc.HTTPClient.Do(req)
			if err != nil {
				errs[i] = err
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			s.statuses[i] = resp.StatusCode
		}(i)
	}
	close(start)
	wg.Wait()

	return errors.Join(errs...)
}

// Background steps

func (s *StepsContext) theBackendIsRunning() error {
	return waitForServer(s.serverURL, 5*time.Second)
}

func (s *StepsContext) aUserExists(email, name, password string) error {
	_, err := gormstore.NewUsersStore(s.tc.DB).Add(model.User{Email: email, Name: name, Password: password})
	return err
}

func (s *StepsContext) aSiteExists(slug, name string) error {
	_, err := gormstore.NewSitesStore(s.tc.DB).Add(model.Site{Slug: slug, Name: name})
	return err
}

// Request steps

// expand replaces {name} placeholders with values saved by earlier steps
func (s *StepsContext) expand(text string) string {
	for name, value := range s.saved {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}

func (s *StepsContext) do(method, path string, body io.Reader, header http.Header) error {
	req, err := http.NewRequest(method, s.serverURL+s.expand(path), body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("X-API-Key", s.token)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}

	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

func (s *StepsContext) iSendARequestTo(method, path string) error {
	return s.do(method, path, nil, nil)
}

func (s *StepsContext) iSendARequestWithBody(method, path string, body *godog.DocString) error {
	return s.do(method, path, strings.NewReader(s.expand(body.Content)), nil)
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) exactlyResponsesShouldHaveStatus(count, status int) error {
	matched := 0
	for _, got := range s.statuses {
		if got == status {
			matched++
		}
	}
	if matched != count {
		return fmt.Errorf("expected %d responses with status %d, got %d: %v", count, status, matched, s.statuses)
	}
	s.counted = status
	return nil
}

// theOtherResponsesShouldHaveStatus checks the responses the previous count
// step did not match
func (s *StepsContext) theOtherResponsesShouldHaveStatus(status int) error {
	for _, got := range s.statuses {
		if got != s.counted && got != status {
			return fmt.Errorf("expected the remaining responses to have status %d, got %v", status, s.statuses)
		}
	}
	return nil
}

func (s *StepsContext) theResponseHeaderShouldBe(name, expected string) error {
	if actual := s.response.Header.Get(name); actual != s.expand(expected) {
		return fmt.Errorf("expected header %s %q, got %q", name, expected, actual)
	}
	return nil
}

func (s *StepsContext) responseField(field string) (string, error) {
	var result map[string]interface{}
	if err := json.Unmarshal(s.responseBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	value, ok := result[field]
	if !ok {
		return "", fmt.Errorf("field %q not found in %s", field, string(s.responseBody))
	}
	return fmt.Sprint(value), nil
}

func (s *StepsContext) theResponseFieldShouldBe(field, expected string) error {
	actual, err := s.responseField(field)
	if err != nil {
		return err
	}
	if actual != s.expand(expected) {
		return fmt.Errorf("expected %s %q, got %q", field, expected, actual)
	}
	return nil
}

func (s *StepsContext) theResponseShouldBeAListOf(count int) error {
	var items []json.RawMessage
	if err := json.Unmarshal(s.responseBody, &items); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if len(items) != count {
		return fmt.Errorf("expected %d items, got %d: %s", count, len(items), string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseShouldNotContain(text string) error {
	if bytes.Contains(s.responseBody, []byte(text)) {
		return fmt.Errorf("response unexpectedly contains %q: %s", text, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) iSaveTheResponseField(field, name string) error {
	value, err := s.responseField(field)
	if err != nil {
		return err
	}
	s.saved[name] = value
	return nil
}
