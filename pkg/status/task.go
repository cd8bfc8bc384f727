package status

import (
	"context"
	"log/slog"
	"time"
)

var (
	StatusInterval = 30 * time.Second
)

type Task interface {
	Progress() Progress
	Status() string // prints to logger, to return value
}

// WatchTask periodically does the status reporting for a task.
// This includes writing to the logger the current state.
func WatchTask(ctx context.Context, task Task, logger *slog.Logger) {
	go continuallyDumpStatus(ctx, task, logger)
}

func continuallyDumpStatus(ctx context.Context, task Task, logger *slog.Logger) {
	ticker := time.NewTicker(StatusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state := task.Progress().CurrentState
			if state >= Done {
				return
			}
			logger.Info(task.Status()) // call the task to write the status
		}
	}
}
