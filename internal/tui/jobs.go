package tui

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type jobKind string

type jobStatus string

const (
	jobKindQuery   jobKind = "query"
	jobKindReset   jobKind = "reset"
	jobKindCatalog jobKind = "catalog"
)

const (
	jobStatusRunning   jobStatus = "running"
	jobStatusSucceeded jobStatus = "succeeded"
	jobStatusFailed    jobStatus = "failed"
)

type jobSnapshot struct {
	ID          string
	Kind        jobKind
	Status      jobStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Err         string
	Duration    time.Duration
}

type jobSignalMsg struct {
	Snapshot jobSnapshot
}

type jobResultEnvelope struct {
	Snapshot jobSnapshot
	Payload  tea.Msg
}

type jobRunner func(context.Context) (tea.Msg, error)

type jobBus struct {
	counter int64
	logger  *zap.Logger
}

func newJobBus(logger *zap.Logger) *jobBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &jobBus{logger: logger.Named("jobs")}
}

func (b *jobBus) nextID(kind jobKind) string {
	idx := atomic.AddInt64(&b.counter, 1)
	return fmt.Sprintf("%s-%d", kind, idx)
}

type job struct {
	id     string
	start  tea.Cmd
	run    tea.Cmd
	cancel context.CancelFunc
}

// Start runs runner off the event loop. A positive timeout bounds the job.
// The returned cancel func aborts it; calling it after completion is harmless.
func (b *jobBus) Start(kind jobKind, timeout time.Duration, runner jobRunner) (tea.Cmd, context.CancelFunc) {
	j := b.newJob(kind, timeout, runner)
	return tea.Sequence(j.start, j.run), j.cancel
}

func (b *jobBus) newJob(kind jobKind, timeout time.Duration, runner jobRunner) job {
	id := b.nextID(kind)
	started := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	startSnapshot := jobSnapshot{ID: id, Kind: kind, Status: jobStatusRunning, StartedAt: started}
	startCmd := func() tea.Msg {
		return jobSignalMsg{Snapshot: startSnapshot}
	}

	runCmd := func() tea.Msg {
		runCtx, stop := ctx, context.CancelFunc(func() {})
		if timeout > 0 {
			runCtx, stop = context.WithTimeout(ctx, timeout)
		}
		defer stop()
		defer cancel()
		payload, err := runner(runCtx)
		snapshot := jobSnapshot{
			ID:          id,
			Kind:        kind,
			StartedAt:   started,
			CompletedAt: time.Now(),
		}
		if err != nil {
			snapshot.Status = jobStatusFailed
			snapshot.Err = err.Error()
		} else {
			snapshot.Status = jobStatusSucceeded
		}
		snapshot.Duration = snapshot.CompletedAt.Sub(started)
		b.logger.Info(string(kind)+" "+string(snapshot.Status),
			zap.String("job", id),
			zap.Duration("duration", snapshot.Duration),
			zap.Error(err))
		return jobResultEnvelope{Snapshot: snapshot, Payload: payload}
	}

	return job{id: id, start: startCmd, run: runCmd, cancel: cancel}
}
