package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

func (s *StepsContext) registerSessionSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, s.iLogIn)
	sc.Step(`^I am logged in as "([^"]*)" with password "([^"]*)"$`, s.iAmLoggedIn)
	sc.Step(`^I log out$`, s.iLogOut)
	sc.Step(`^I forget my session token$`, s.iForgetMySessionToken)
	sc.Step(`^I use the session token "([^"]*)"$`, s.iUseTheSessionToken)
	sc.Step(`^I should receive a session token$`, s.iShouldReceiveASessionToken)
	sc.Step(`^my session should be (valid|invalid)$`, s.mySessionShouldBe)
	sc.Step(`^a server with a login burst of (\d+) is running$`, s.aServerWithALoginBurstIsRunning)
	sc.Step(`^the sessions table should have (\d+) rows?$`, s.theSessionsTableShouldHave)
}

func (s *StepsContext) iLogIn(email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	if err := s.do(http.MethodPost, "/session/login", strings.NewReader(string(body)), nil); err != nil {
		return err
	}

	if s.response.StatusCode == http.StatusOK {
		token, err := s.responseField("token")
		if err != nil {
			return err
		}
		s.token = token
		s.saved["token"] = token
	}
	return nil
}

func (s *StepsContext) iAmLoggedIn(email, password string) error {
	if err := s.iLogIn(email, password); err != nil {
		return err
	}
	return s.theResponseStatusShouldBe(http.StatusOK)
}

func (s *StepsContext) iLogOut() error {
	return s.do(http.MethodPost, "/session/logout", nil, nil)
}

func (s *StepsContext) iForgetMySessionToken() error {
	s.token = ""
	return nil
}

func (s *StepsContext) iUseTheSessionToken(token string) error {
	s.token = s.expand(token)
	return nil
}

func (s *StepsContext) iShouldReceiveASessionToken() error {
	if err := s.theResponseStatusShouldBe(http.StatusOK); err != nil {
		return err
	}
	if s.token == "" {
		return fmt.Errorf("no token in response: %s", string(s.responseBody))
	}
	if _, err := s.responseField("expiresAt"); err != nil {
		return err
	}
	return nil
}

func (s *StepsContext) mySessionShouldBe(state string) error {
	if err := s.do(http.MethodGet, "/session/verify", nil, nil); err != nil {
		return err
	}
	if state == "valid" {
		return s.theResponseStatusShouldBe(http.StatusNoContent)
	}
	return s.theResponseStatusShouldBe(http.StatusUnauthorized)
}

func (s *StepsContext) aServerWithALoginBurstIsRunning(burst int) error {
	cfg := DefaultServerConfig()
	cfg.LoginRateLimit = 0.001
	cfg.LoginRateBurst = burst

	instance, err := StartServer(s.tc, cfg)
	if err != nil {
		return err
	}
	s.instances = append(s.instances, instance)
	s.serverURL = instance.ServerURL
	return nil
}

func (s *StepsContext) theSessionsTableShouldHave(count int) error {
	var actual int64
	if err := s.tc.DB.Raw(`SELECT COUNT(*) FROM sessions`).Scan(&actual).Error; err != nil {
		return err
	}
	if actual != int64(count) {
		return fmt.Errorf("expected %d sessions, got %d", count, actual)
	}
	return nil
}
