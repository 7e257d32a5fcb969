//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"syscall"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const authSecret = "e2e-secret"

type TestServer struct {
	APIAddr   string
	AdminAddr string
	BaseURL   string
	DBPath    string
	Cmd       *exec.Cmd
}

type Client struct {
	t    *testing.T
	conn *websocket.Conn
}

type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func getFreePort(t *testing.T) int {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	require.NoError(t, err)

	l, err := net.ListenTCP("tcp", addr)
	require.NoError(t, err)
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port
}

func startServer(t *testing.T) *TestServer {
	apiAddr := fmt.Sprintf("localhost:%d", getFreePort(t))
	adminAddr := fmt.Sprintf("localhost:%d", getFreePort(t))

	s := &TestServer{
		APIAddr:   apiAddr,
		AdminAddr: adminAddr,
		BaseURL:   fmt.Sprintf("http://%s", apiAddr),
		DBPath:    filepath.Join(t.TempDir(), "duet-e2e.db"),
	}

	s.Cmd = exec.Command(serverBinPath)
	s.Cmd.Env = s.env()

	require.NoError(t, s.Cmd.Start())

	// Wait for server to be ready
	require.Eventually(t, func() bool {
		for _, addr := range []string{apiAddr, adminAddr} {
			conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
			if err != nil {
				return false
			}
			_ = conn.Close()
		}
		return true
	}, 5*time.Second, 200*time.Millisecond, "Server failed to start")

	return s
}

func (s *TestServer) env() []string {
	return append(os.Environ(),
		"AUTH_SECRET="+authSecret,
		fmt.Sprintf("API_ADDR=%s", s.APIAddr),
		fmt.Sprintf("ADMIN_ADDR=%s", s.AdminAddr),
		fmt.Sprintf("BASE_URL=%s", s.BaseURL),
		fmt.Sprintf("DUET_DB=%s", s.DBPath),
		"PING_INTERVAL=1s",
	)
}

func (s *TestServer) Stop() {
	if s.Cmd != nil && s.Cmd.Process != nil {
		_ = s.Cmd.Process.Kill()
		_ = s.Cmd.Wait()
	}
}

// Terminate sends SIGTERM and waits for a clean exit.
func (s *TestServer) Terminate(t *testing.T) {
	require.NoError(t, s.Cmd.Process.Signal(syscall.SIGTERM))

	done := make(chan error, 1)
	go func() { done <- s.Cmd.Wait() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not exit after SIGTERM")
	}
	s.Cmd = nil
}

// CreateUser runs the -add-user CLI and returns the new user's ID and token.
func (s *TestServer) CreateUser(t *testing.T, username string) (string, string) {
	output := s.runCLI(t, "-add-user", username)

	id := regexp.MustCompile(`User ID:\s+(\S+)`).FindStringSubmatch(output)
	require.Len(t, id, 2, "Could not find user ID in output: %s", output)
	token := regexp.MustCompile(`Token:\s+(\S+)`).FindStringSubmatch(output)
	require.Len(t, token, 2, "Could not find token in output: %s", output)

	return id[1], token[1]
}

func (s *TestServer) ListOnline(t *testing.T) string {
	return s.runCLI(t, "-online")
}

func (s *TestServer) runCLI(t *testing.T, args ...string) string {
	cmd := exec.Command(serverBinPath, args...)
	cmd.Env = s.env()

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "CLI %v failed: %s", args, string(output))
	return string(output)
}

func (s *TestServer) Connect(t *testing.T, token string) *Client {
	url := fmt.Sprintf("ws://%s/api/chat?token=%s", s.APIAddr, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &Client{t: t, conn: conn}
}

func (s *TestServer) Get(t *testing.T, path, token string, v any) {
	req, err := http.NewRequest(http.MethodGet, s.BaseURL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (c *Client) Send(event string, data any) {
	require.NoError(c.t, c.conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

// Expect skips frames until event arrives and returns its data.
func (c *Client) Expect(event string) json.RawMessage {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var f Frame
		require.NoError(c.t, c.conn.ReadJSON(&f), "waiting for %s", event)
		if f.Event == event {
			return f.Data
		}
	}
}

// ExpectValue skips frames until event arrives with the given JSON string data.
func (c *Client) ExpectValue(event, value string) {
	c.t.Helper()
	want, _ := json.Marshal(value)
	for {
		if string(c.Expect(event)) == string(want) {
			return
		}
	}
}

func (c *Client) Close() {
	_ = c.conn.Close()
}
