package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const notifyTimeout = 10 * time.Second

// notifyCmd posts a toast to a running server.
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Post a toast to a running server",
	Long: `Post a toast to a running Toastboard server through its REST API.

The created toast id is printed on success.

Example:
  toastboard notify --title "Deploy finished" --kind success
  toastboard notify --addr http://ops:8080 -t "Disk full" -k error -d "/var at 98%"`,
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)

	notifyCmd.Flags().String("addr", "http://localhost:8080", "base URL of the toastboard server")
	notifyCmd.Flags().StringP("title", "t", "", "toast title (required)")
	notifyCmd.Flags().StringP("kind", "k", "", "toast kind: success, error, info, or empty")
	notifyCmd.Flags().StringP("description", "d", "", "optional toast description")
	_ = notifyCmd.MarkFlagRequired("title")
}

// notifyRequest mirrors the server's toast input body.
type notifyRequest struct {
	Kind        string `json:"kind,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type notifyResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

func runNotify(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	title, _ := cmd.Flags().GetString("title")
	kind, _ := cmd.Flags().GetString("kind")
	description, _ := cmd.Flags().GetString("description")

	body, err := json.Marshal(notifyRequest{
		Kind:        kind,
		Title:       title,
		Description: description,
	})
	if err != nil {
		return fmt.Errorf("failed to encode toast: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), notifyTimeout)
	defer cancel()

	url := strings.TrimRight(addr, "/") + "/api/toasts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post toast: %w", err)
	}
	defer resp.Body.Close()

	var result notifyResponse
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	// a non-JSON body still gets reported through the status code below
	_ = json.Unmarshal(data, &result)

	if resp.StatusCode != http.StatusCreated {
		if result.Error != "" {
			return fmt.Errorf("server rejected toast (%d): %s", resp.StatusCode, result.Error)
		}
		return fmt.Errorf("server rejected toast: unexpected status %d", resp.StatusCode)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.ID)
	return nil
}
