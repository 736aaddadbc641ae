// Package resolver runs the single worker loop that turns keyword
// notifications into actuation commands: wait, debounce, step the grammar,
// dispatch.
package resolver

import (
	"context"
	"errors"
	"sync/atomic"

	"kwhmi/agent/internal/actuator"
	"kwhmi/agent/internal/debounce"
	"kwhmi/agent/internal/intent"
	"kwhmi/agent/internal/keyword"
	"kwhmi/agent/internal/logging"
	"kwhmi/agent/internal/types"
)

const logTag = "hmi"

// Defaults for the two debounce thresholds.
const (
	DefaultDebounceThreshold     = 3
	DefaultUnknownResetThreshold = 10
)

// Source delivers keyword notifications, blocking until one is available.
type Source interface {
	Next(ctx context.Context) (keyword.Set, error)
}

// Journal records resolver events for later inspection.
type Journal interface {
	Append(typ string, payload map[string]any) types.Event
}

type Options struct {
	DebounceThreshold     int
	UnknownResetThreshold int
	Vocabulary            *keyword.Vocabulary
	Journal               Journal
}

// Resolver owns the debounce filter, the grammar and the accumulator. Only
// the goroutine running Run (or calling Handle) touches them.
type Resolver struct {
	src     Source
	sink    actuator.Sink
	vocab   *keyword.Vocabulary
	filter  *debounce.Filter
	machine *intent.Machine
	journal Journal

	running   atomic.Bool
	state     atomic.Int32
	processed atomic.Uint64
	commands  atomic.Uint64
}

func New(src Source, sink actuator.Sink, opts Options) *Resolver {
	if opts.DebounceThreshold <= 0 {
		opts.DebounceThreshold = DefaultDebounceThreshold
	}
	if opts.UnknownResetThreshold <= 0 {
		opts.UnknownResetThreshold = DefaultUnknownResetThreshold
	}
	if opts.Vocabulary == nil {
		opts.Vocabulary = keyword.Default()
	}
	return &Resolver{
		src:     src,
		sink:    sink,
		vocab:   opts.Vocabulary,
		filter:  debounce.New(opts.DebounceThreshold, opts.UnknownResetThreshold),
		machine: intent.NewMachine(opts.Vocabulary),
		journal: opts.Journal,
	}
}

// Run processes notifications in arrival order until ctx is cancelled or
// the source fails. It returns ctx.Err() on cancellation.
func (r *Resolver) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return errors.New("resolver already running")
	}
	defer r.running.Store(false)

	debounceTh, unknownTh := r.filter.Thresholds()
	logging.Info(logTag, "resolver started debounce=%d unknown_reset=%d objects=%v", debounceTh, unknownTh, r.vocab.ObjectNames())
	for {
		s, err := r.src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logging.Info(logTag, "resolver stopped")
				return ctx.Err()
			}
			return err
		}
		r.Handle(s)
	}
}

// Handle processes one notification synchronously. It reports whether the
// notification was confirmed and changed anything.
func (r *Resolver) Handle(s keyword.Set) (intent.Outcome, bool) {
	if s.IsEmpty() {
		return intent.Outcome{}, false
	}
	r.processed.Add(1)
	metricNotifications.Inc()

	obs := r.filter.ObserveDetail(s)
	logging.Debug(logTag, "rx=%s count=%d confirmed=%v state=%s", r.vocab.Format(s), obs.Count, obs.Confirmed, r.machine.State())

	if obs.Unknown {
		if !obs.Confirmed {
			return intent.Outcome{}, false
		}
		metricConfirmations.WithLabelValues("unknown").Inc()
		out := r.machine.Reset()
		r.record(out)
		metricUnknownResets.Inc()
		logging.Info(logTag, "unknown threshold passed, reset intent state from %s", out.From)
		r.appendEvent(types.EventUnknownReset, map[string]any{
			"from":      out.From.String(),
			"discarded": r.vocab.Format(out.Intent),
		})
		return out, true
	}

	if !obs.Confirmed {
		return intent.Outcome{}, false
	}
	metricConfirmations.WithLabelValues("keyword").Inc()
	r.appendEvent(types.EventConfirmed, map[string]any{"keywords": r.vocab.Names(s)})

	out := r.machine.Step(s)
	r.record(out)
	r.report(out)
	if out.Dispatch {
		r.dispatch(out.Command)
	}
	return out, true
}

func (r *Resolver) report(out intent.Outcome) {
	switch {
	case out.Ignored:
		logging.Info(logTag, "ignoring %s in %s", r.vocab.Format(out.Input), out.From)
	case out.From == intent.Idle && out.To == intent.AwaitingObject:
		logging.Info(logTag, "found action, waiting for object")
	case out.From == intent.Idle && out.To == intent.AwaitingAction:
		logging.Info(logTag, "found object, waiting for action")
	case out.Mismatch:
		metricMismatches.Inc()
		if out.From == intent.AwaitingObject {
			logging.Info(logTag, "action with no object, reset intent state")
		} else {
			logging.Info(logTag, "object with no action, reset intent state")
		}
		r.appendEvent(types.EventMismatch, map[string]any{
			"from":  out.From.String(),
			"input": r.vocab.Format(out.Input),
		})
	case out.Resolved && !out.Dispatch:
		metricUnresolved.Inc()
		logging.Info(logTag, "no command for intent %s", r.vocab.Format(out.Intent))
		r.appendEvent(types.EventUnresolved, map[string]any{"intent": r.vocab.Format(out.Intent)})
	}
}

// record publishes the state for observers and counts transitions.
func (r *Resolver) record(out intent.Outcome) {
	r.state.Store(int32(out.To))
	if !out.Changed() {
		return
	}
	metricStateTransitions.WithLabelValues(out.From.String(), out.To.String()).Inc()
	r.appendEvent(types.EventTransition, map[string]any{"from": out.From.String(), "to": out.To.String()})
}

func (r *Resolver) dispatch(cmd intent.Command) {
	logging.Info(logTag, "intent is %s", cmd)
	if cmd.On {
		r.sink.SetOn(cmd.Object)
	} else {
		r.sink.SetOff(cmd.Object)
	}
	r.commands.Add(1)
	metricDispatch.WithLabelValues(cmd.Object, onOff(cmd.On)).Inc()
	r.appendEvent(types.EventDispatched, map[string]any{"object": cmd.Object, "on": cmd.On})
}

func (r *Resolver) appendEvent(typ string, payload map[string]any) {
	if r.journal != nil {
		r.journal.Append(typ, payload)
	}
}

// Snapshot is a point-in-time view safe to read from any goroutine.
type Snapshot struct {
	Running   bool   `json:"running"`
	State     string `json:"state"`
	Processed uint64 `json:"processed"`
	Commands  uint64 `json:"commands"`
}

func (r *Resolver) Snapshot() Snapshot {
	return Snapshot{
		Running:   r.running.Load(),
		State:     intent.State(r.state.Load()).String(),
		Processed: r.processed.Load(),
		Commands:  r.commands.Load(),
	}
}

// Running reports whether Run is active.
func (r *Resolver) Running() bool { return r.running.Load() }

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
