package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/toastboard"
)

func main() {
	board, err := toastboard.New(
		toastboard.WithPort(8080),
		toastboard.WithTitle("Toastboard Demo"),
		toastboard.WithDismissAfter(toastboard.KindError, 0), // errors stay until dismissed
		toastboard.WithToastCallback(func(ev toastboard.Event) {
			slog.Info("toast event", "type", ev.Type, "toast_id", ev.Toast.ID, "title", ev.Toast.Title)
		}),
	)
	if err != nil {
		slog.Error("failed to create toastboard", "error", err)
		os.Exit(1)
	}

	if _, err := board.Notify(toastboard.Input{
		Kind:        toastboard.KindInfo,
		Title:       "Demo started",
		Description: "New toasts arrive every few seconds",
	}); err != nil {
		slog.Error("failed to add toast", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Toastboard Demo                                     ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   A simulated deploy pipeline posts a toast every     ║")
	fmt.Println("  ║   3-8 seconds. Error toasts stay until dismissed.     ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// producer (see pipeline.go)
	go RunPipeline(ctx, board, 3*time.Second, 8*time.Second)

	if err := board.Start(ctx); err != nil {
		slog.Error("toastboard error", "error", err)
		os.Exit(1)
	}
}
