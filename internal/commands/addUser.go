package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"duet/internal/api"
	"duet/internal/config"
)

func AddUser(username string, cfg *config.Config, out io.Writer) error {
	reqBody, err := json.Marshal(api.AddUserRequest{Username: username})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("http://%s/admin/users", cfg.AdminAddr)
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to call admin API: %w. Is the server running?", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to add user (Status: %d): %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var result api.AddUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	_, _ = fmt.Fprintf(out, "\nUser Created Successfully!\n")
	_, _ = fmt.Fprintf(out, "Username:      %s\n", result.User.UserName)
	_, _ = fmt.Fprintf(out, "User ID:       %s\n", result.User.ID)
	_, _ = fmt.Fprintf(out, "Token:         %s\n", result.Token)
	_, _ = fmt.Fprintf(out, "Expires:       %s\n\n", result.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	_, _ = fmt.Fprintf(out, "Connect with:  %s/api/chat?token=<token>\n", cfg.BaseURL)
	return nil
}
