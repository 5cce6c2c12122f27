// Standalone producer for testing the CLI server.
//
// Usage:
//
//	go run ./cmd/toastboard serve -c example/config.yaml
//
// Then in another terminal:
//
//	go run ./example/cmd/producer
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"
)

type toastInput struct {
	Kind        string `json:"kind,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func main() {
	addr := "http://localhost:8080"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	fmt.Printf("Posting toasts to %s every 2-6 seconds\n", addr)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	kinds := []string{"", "success", "info", "error"}
	client := &http.Client{Timeout: 5 * time.Second}

	for i := 1; ; i++ {
		in := toastInput{
			Kind:        kinds[rand.Intn(len(kinds))],
			Title:       fmt.Sprintf("Event #%d", i),
			Description: time.Now().Format(time.Kitchen),
		}

		body, _ := json.Marshal(in)
		resp, err := client.Post(addr+"/api/toasts", "application/json", bytes.NewReader(body))
		if err != nil {
			slog.Error("post failed", "error", err)
		} else {
			_ = resp.Body.Close()
			slog.Info("toast posted", "title", in.Title, "kind", in.Kind, "status", resp.StatusCode)
		}

		time.Sleep(time.Duration(2+rand.Intn(5)) * time.Second)
	}
}
