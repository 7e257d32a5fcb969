package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"duet/internal/config"
	"duet/internal/models"

	"github.com/olekukonko/tablewriter"
)

// ListOnline prints the users that currently hold at least one session.
func ListOnline(cfg *config.Config, out io.Writer) error {
	url := fmt.Sprintf("http://%s/admin/presence", cfg.AdminAddr)
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to call admin API: %w. Is the server running?", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to list presence (Status: %d)", resp.StatusCode)
	}

	var entries []models.PresenceEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"User ID", "Sessions"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("\t")

	for _, e := range entries {
		table.Append([]string{e.UserID, strconv.Itoa(e.Sessions)})
	}
	table.Render()

	_, _ = fmt.Fprintf(out, "\n%d user(s) online\n", len(entries))
	return nil
}
