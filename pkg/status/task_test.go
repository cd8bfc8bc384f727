package status

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	StatusInterval = 10 * time.Millisecond
	goleak.VerifyTestMain(m)
}

type fakeTask struct {
	state       State
	statusCalls atomic.Int64
}

func (f *fakeTask) Progress() Progress {
	return Progress{CurrentState: f.state.Get(), Summary: f.state.Get().String()}
}

func (f *fakeTask) Status() string {
	f.statusCalls.Add(1)
	return "status: " + f.state.Get().String()
}

func TestWatchTaskReportsStatus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	task := &fakeTask{}
	task.state.Set(DataTransferring)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	WatchTask(ctx, task, logger)
	assert.Eventually(t, func() bool {
		return task.statusCalls.Load() > 0
	}, time.Second, 5*time.Millisecond)
	cancel() // watcher goroutine must exit or goleak fails the package
}

func TestWatchTaskStopsWhenDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	task := &fakeTask{}
	task.state.Set(Done)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	WatchTask(ctx, task, logger)
	// The watcher exits on its first tick because the task is already
	// terminal. goleak verifies the goroutine is gone at package exit.
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, task.statusCalls.Load())
}
