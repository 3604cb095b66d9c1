package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

// BaseSuite carries the environment configuration and HTTP/websocket
// helpers shared by every scenario.
type BaseSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping end to end suite")
	}
	s.client = &http.Client{Timeout: 10 * time.Second}
}

// Step prints a colorized header so scenario logs stay readable.
func (s *BaseSuite) Step(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// PostJSON sends a JSON body and decodes the JSON response into out.
// A nil out discards the body. Returns the HTTP status code.
func (s *BaseSuite) PostJSON(t *testing.T, path, token string, body, out any) int {
	return s.doJSON(t, http.MethodPost, path, token, body, out)
}

func (s *BaseSuite) GetJSON(t *testing.T, path, token string, out any) int {
	return s.doJSON(t, http.MethodGet, path, token, nil, out)
}

func (s *BaseSuite) doJSON(t *testing.T, method, path, token string, body, out any) int {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("http://%s%s", s.Config.ServerAddr, path), reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	s.Require().NoError(err)

	if s.Config.DebugJSON {
		fmt.Fprintln(&logBuilder, "\nRESPONSE:")
		fmt.Fprintln(&logBuilder, buf.String())
	}
	t.Log(logBuilder.String())

	if out != nil && buf.Len() > 0 {
		s.Require().NoError(json.Unmarshal(buf.Bytes(), out))
	}
	return resp.StatusCode
}

// Dial opens an authenticated websocket connection.
func (s *BaseSuite) Dial(t *testing.T, token string) *websocket.Conn {
	u := url.URL{
		Scheme:   "ws",
		Host:     s.Config.ServerAddr,
		Path:     "/ws",
		RawQuery: "token=" + url.QueryEscape(token),
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	s.Require().NoError(err, "Failed to connect to websocket at "+u.String())
	return conn
}

// Envelope mirrors the server's wire frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendEvent writes one frame on the websocket.
func (s *BaseSuite) SendEvent(conn *websocket.Conn, event string, data any) {
	raw, err := json.Marshal(data)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteJSON(Envelope{Event: event, Data: raw}))
}

// WaitForEvent reads frames until the named event shows up or the deadline
// passes. Other events (presence broadcasts mostly) are discarded.
func (s *BaseSuite) WaitForEvent(conn *websocket.Conn, event string, timeout time.Duration) (Envelope, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return Envelope{}, false
		}
		if env.Event == event {
			return env, true
		}
	}
	return Envelope{}, false
}
