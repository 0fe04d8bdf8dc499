package e2e

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/batsdk/wowclass-enlace/auth"
	"github.com/batsdk/wowclass-enlace/client"
	"github.com/batsdk/wowclass-enlace/domain/chat"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

// BaseRelaySuite talks to a running relay instance. Scenarios layer on
// top of its login and agent helpers.
type BaseRelaySuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
// and skips the whole suite when no relay is reachable.
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerURL == "" {
		s.T().Skip("SERVER_URL not set, skipping relay scenarios")
	}
}

// Step prints a colorized section header in the test log.
func (s *BaseRelaySuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Login exchanges credentials for the relay's token cookie.
func (s *BaseRelaySuite) Login(identifier, password, role string) string {
	body := fmt.Sprintf(`{"identifier":%q,"password":%q,"role":%q}`, identifier, password, role)
	resp, err := http.Post(s.Config.ServerURL+"/api/auth/login",
		"application/json", bytes.NewBufferString(body))
	s.Require().NoError(err)
	defer func() {
		_ = resp.Body.Close()
	}()
	s.Require().Equal(http.StatusOK, resp.StatusCode, "login refused for %s", identifier)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == auth.CookieName {
			return cookie.Value
		}
	}
	s.Require().FailNow("no token cookie in login response")
	return ""
}

// ConnectedAgent joins a class as the given user and waits for the open
// confirmation. The agent is torn down with the test.
func (s *BaseRelaySuite) ConnectedAgent(classID, userID, userName, token string) (*client.Agent, <-chan chat.Message, <-chan chat.TypingSignal) {
	log := logs.GetLoggerFromString("ERROR")
	agent, err := client.NewAgent(s.Config.ServerURL, classID, userID, userName, token, log)
	s.Require().NoError(err)

	messages := make(chan chat.Message, 16)
	typings := make(chan chat.TypingSignal, 16)
	statuses := make(chan string, 4)
	agent.OnMessage(func(m chat.Message) { messages <- m })
	agent.OnTyping(func(sig chat.TypingSignal) { typings <- sig })
	agent.OnStatus(func(status string) { statuses <- status })

	s.Require().NoError(agent.Connect())
	s.T().Cleanup(agent.Disconnect)

	select {
	case status := <-statuses:
		s.Require().Equal(client.StatusConnected, status)
	case <-time.After(5 * time.Second):
		s.Require().FailNow("agent never reported connected")
	}
	return agent, messages, typings
}
