package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/batsdk/wowclass-enlace/client"
	"github.com/batsdk/wowclass-enlace/domain/chat"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type testClassChatSuite struct {
	BaseRelaySuite
}

func TestClassChatSuite(t *testing.T) {
	suite.Run(t, &testClassChatSuite{})
}

func (s *testClassChatSuite) TestFullClassChatFlow() {
	classID := "e2e-" + uuid.New().String()

	var teacherToken, studentToken string
	s.Run("Step 0: Login both participants", func() {
		s.Step("Login")
		teacherToken = s.Login(s.Config.TeacherIdentifier, s.Config.TeacherPassword, "teacher")
		studentToken = s.Login(s.Config.StudentIdentifier, s.Config.StudentPassword, "student")
	})

	s.Step("Join class " + classID)
	teacher, teacherMessages, teacherTypings := s.ConnectedAgent(classID, "t-demo", "Demo Teacher", teacherToken)
	_, studentMessages, studentTypings := s.ConnectedAgent(classID, "s-demo", "Demo Student", studentToken)

	var sent chat.Message
	s.Run("Step 1: Teacher message reaches everyone including the sender", func() {
		s.Step("Message fan-out")
		var err error
		sent, err = teacher.SendMessage(classID, "t-demo", "Demo Teacher", "welcome to today's class")
		s.Require().NoError(err)

		for name, ch := range map[string]<-chan chat.Message{
			"teacher": teacherMessages,
			"student": studentMessages,
		} {
			select {
			case got := <-ch:
				s.Require().Equal(sent.ID, got.ID, "%s saw a different message", name)
				s.Require().Equal("t-demo", got.SenderID)
				s.Require().Equal(classID, got.ClassID)
			case <-time.After(5 * time.Second):
				s.Require().FailNow(fmt.Sprintf("%s never received the message", name))
			}
		}
	})

	s.Run("Step 2: Typing excludes its originator", func() {
		s.Step("Typing")
		s.Require().NoError(teacher.SendTyping(classID, "t-demo", "Demo Teacher"))

		select {
		case sig := <-studentTypings:
			s.Require().Equal("t-demo", sig.UserID)
			s.Require().Empty(sig.ClassID)
		case <-time.After(5 * time.Second):
			s.Require().FailNow("student never saw the typing signal")
		}

		select {
		case <-teacherTypings:
			s.Require().FailNow("typing signal echoed back to its originator")
		case <-time.After(time.Second):
		}
	})

	s.Run("Step 3: Stats endpoint reports activity", func() {
		s.Step("Stats")
		resp, err := http.Get(s.Config.ServerURL + "/api/stats")
		s.Require().NoError(err)
		defer func() {
			_ = resp.Body.Close()
		}()
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var stats map[string]any
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&stats))
		s.Require().Contains(stats, "messages_relayed")
	})
}

func (s *testClassChatSuite) TestRejectsMissingToken() {
	s.Step("Handshake rejection")
	classID := "e2e-" + uuid.New().String()

	endpoint, err := client.DeriveEndpoint(s.Config.ServerURL, classID, "s-demo", "Demo Student")
	s.Require().NoError(err)

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	s.Require().NoError(err)
	defer func() {
		_ = conn.Close()
	}()

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	s.Require().ErrorAs(err, &closeErr)
	s.Require().Equal(websocket.ClosePolicyViolation, closeErr.Code)
	s.Require().Equal("Unauthorized: No token", closeErr.Text)
}
