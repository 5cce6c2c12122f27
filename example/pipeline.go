package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jpalmerr/toastboard"
)

// stage is one step of the simulated pipeline.
type stage struct {
	name    string
	failPct int
}

var stages = []stage{
	{name: "build", failPct: 10},
	{name: "test", failPct: 20},
	{name: "deploy", failPct: 15},
}

// RunPipeline posts a toast for each simulated pipeline stage, waiting a
// random delay in [minWait, maxWait) between stages. It returns when ctx is
// cancelled or the board goes out of scope.
func RunPipeline(ctx context.Context, board *toastboard.Board, minWait, maxWait time.Duration) {
	for run := 1; ; run++ {
		for _, st := range stages {
			wait := minWait + time.Duration(rand.Int63n(int64(maxWait-minWait)))
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}

			in := toastboard.Input{
				Kind:  toastboard.KindSuccess,
				Title: fmt.Sprintf("Run #%d: %s passed", run, st.name),
			}
			failed := rand.Intn(100) < st.failPct
			if failed {
				in = toastboard.Input{
					Kind:        toastboard.KindError,
					Title:       fmt.Sprintf("Run #%d: %s failed", run, st.name),
					Description: "Check the logs for details",
				}
			}

			if _, err := board.Notify(in); err != nil {
				if errors.Is(err, toastboard.ErrOutOfScope) {
					return
				}
				slog.Error("failed to add toast", "error", err)
			}
			if failed {
				break
			}
		}
	}
}
