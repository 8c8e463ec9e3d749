// Package worker wraps a pipeline orchestrator behind a message-passing
// surface. A Runner consumes typed commands from one channel and publishes
// typed events on another, so the processing side can live in its own
// goroutine (or behind any transport that carries the structs) with no
// shared state beyond the payloads themselves.
//
// The protocol is small: the host sends init once, then any
// number of process commands, then terminate. The runner answers init with
// ready, streams progress during a run, and ends every run with exactly one
// result or error event. Terminate is cooperative: a run already in flight
// finishes first.
package worker

import (
	"context"
	"fmt"

	"github.com/wudi/redactkit/observability"
	"github.com/wudi/redactkit/pipeline"
)

// Action identifies a command from the host.
type Action string

const (
	ActionInit      Action = "init"
	ActionProcess   Action = "process"
	ActionTerminate Action = "terminate"
)

// EventType identifies a message from the runner.
type EventType string

const (
	EventReady    EventType = "ready"
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
	EventError    EventType = "error"
)

// Command is one instruction to the runner. Document and Options are only
// read for ActionProcess; ID is echoed back on every event the command
// produces so the host can correlate replies.
type Command struct {
	Action   Action
	ID       string
	Document pipeline.Document
	Options  pipeline.Options
}

// Event is one message from the runner to the host.
type Event struct {
	Type EventType
	// ID is the originating command's ID; empty for the ready event.
	ID       string
	Progress pipeline.ProgressEvent
	Result   *pipeline.Result
	Err      error
}

// Runner owns one orchestrator and serializes all processing through it.
type Runner struct {
	orch   *pipeline.Orchestrator
	logger observability.Logger

	commands <-chan Command
	events   chan<- Event
}

// NewRunner wires a runner between the two channels. The runner takes
// ownership of orch and destroys it when the command stream ends.
func NewRunner(orch *pipeline.Orchestrator, commands <-chan Command, events chan<- Event, logger observability.Logger) *Runner {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Runner{orch: orch, logger: logger, commands: commands, events: events}
}

// Run consumes commands until a terminate arrives, the command channel
// closes, or ctx is cancelled. It never returns with a run in flight: the
// current document is always finished (or failed) before Run exits. The
// events channel is closed on exit.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.events)
	defer r.orch.Destroy()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-r.commands:
			if !ok {
				return nil
			}
			switch cmd.Action {
			case ActionInit:
				r.events <- Event{Type: EventReady}
			case ActionProcess:
				r.process(ctx, cmd)
			case ActionTerminate:
				return nil
			default:
				r.events <- Event{
					Type: EventError,
					ID:   cmd.ID,
					Err:  fmt.Errorf("worker: unknown action %q", cmd.Action),
				}
			}
		}
	}
}

// process executes one document end to end, forwarding orchestrator
// progress as events tagged with the command ID.
func (r *Runner) process(ctx context.Context, cmd Command) {
	unsub := r.orch.OnProgress(func(ev pipeline.ProgressEvent) {
		r.events <- Event{Type: EventProgress, ID: cmd.ID, Progress: ev}
	})
	defer unsub()

	res, err := r.orch.Process(ctx, cmd.Document, cmd.Options)
	if err != nil {
		r.logger.Error("worker run failed",
			observability.String("id", cmd.ID),
			observability.Error("err", err))
		r.events <- Event{Type: EventError, ID: cmd.ID, Err: err}
		return
	}
	r.events <- Event{Type: EventResult, ID: cmd.ID, Result: res}
}
