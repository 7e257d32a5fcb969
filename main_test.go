package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"duet/internal/api"
	"duet/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const (
	adminAddr = "127.0.0.1:18881"
	apiAddr   = "127.0.0.1:18880"
)

func TestIntegration(t *testing.T) {
	t.Setenv("DUET_DB", filepath.Join(t.TempDir(), "integration.db"))
	t.Setenv("ADMIN_ADDR", adminAddr)
	t.Setenv("API_ADDR", apiAddr)
	t.Setenv("AUTH_SECRET", "very-secure-test-secret")
	t.Setenv("LOG_LEVEL", "error")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(ctx, nil)
	}()

	waitForServer(t, fmt.Sprintf("http://%s/admin/presence", adminAddr), 50)
	waitForServer(t, fmt.Sprintf("http://%s/api/me", apiAddr), 50)

	alice := createUser(t, "alice")
	bob := createUser(t, "bob")

	aliceConn := dial(t, alice.Token)
	bobConn := dial(t, bob.Token)
	readUntil(t, aliceConn, models.EventUserConnected, `"`+bob.User.ID+`"`)

	require.NoError(t, aliceConn.WriteJSON(map[string]any{
		"event": models.EventSendMessage,
		"data":  map[string]string{"receiverId": bob.User.ID, "content": "hello bob"},
	}))
	readUntil(t, aliceConn, models.EventReceiveMessage, "")
	readUntil(t, bobConn, models.EventReceiveMessage, "")

	// History over REST
	var history []models.Message
	getJSON(t, "/api/messages", bob.Token, &history)
	require.Len(t, history, 1)
	require.Equal(t, "hello bob", history[0].Content)
	require.Equal(t, alice.User.ID, history[0].SenderID)

	var users []models.User
	getJSON(t, "/api/users", alice.Token, &users)
	require.Len(t, users, 1)
	require.Equal(t, bob.User.ID, users[0].ID)
	require.True(t, users[0].Online)

	// Unauthenticated upgrade is refused
	_, resp, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/api/chat?token=bogus", apiAddr), nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.NoError(t, bobConn.Close())
	readUntil(t, aliceConn, models.EventUserDisconnected, `"`+bob.User.ID+`"`)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func createUser(t *testing.T, username string) api.AddUserResponse {
	t.Helper()
	body, _ := json.Marshal(api.AddUserRequest{Username: username})
	resp, err := http.Post(fmt.Sprintf("http://%s/admin/users", adminAddr), "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result api.AddUserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.True(t, result.Success)
	return result
}

func dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/api/chat", apiAddr), header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, event models.EventName, data string) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var frame struct {
			Event models.EventName `json:"event"`
			Data  json.RawMessage  `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&frame), "waiting for %s", event)
		if frame.Event == event && (data == "" || string(frame.Data) == data) {
			return
		}
	}
}

func getJSON(t *testing.T, path, token string, v any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("http://%s%s", apiAddr, path), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func waitForServer(t *testing.T, urlStr string, retries int) {
	client := &http.Client{Timeout: 500 * time.Millisecond}

	for i := 0; i < retries; i++ {
		resp, err := client.Get(urlStr)
		if err == nil {
			_ = resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("Server failed to start at %s after %d retries", urlStr, retries)
}
