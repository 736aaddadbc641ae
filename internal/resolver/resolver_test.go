package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kwhmi/agent/internal/intent"
	"kwhmi/agent/internal/keyword"
	"kwhmi/agent/internal/store"
	"kwhmi/agent/internal/types"
)

type fakeSink struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeSink) SetOn(id string)  { f.add(id + ":on") }
func (f *fakeSink) SetOff(id string) { f.add(id + ":off") }

func (f *fakeSink) add(c string) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeSink) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestResolver(t *testing.T) (*Resolver, *fakeSink, *store.Store) {
	t.Helper()
	sink := &fakeSink{}
	st := store.New(100)
	r := New(nil, sink, Options{DebounceThreshold: 3, UnknownResetThreshold: 10, Journal: st})
	return r, sink, st
}

// feed delivers s n times in a row.
func feed(r *Resolver, s keyword.Set, n int) {
	for i := 0; i < n; i++ {
		r.Handle(s)
	}
}

func TestShortRunDoesNotTransition(t *testing.T) {
	r, sink, _ := newTestResolver(t)
	feed(r, keyword.Green, 2)
	if r.machine.State() != intent.Idle {
		t.Fatalf("expected IDLE, got %v", r.machine.State())
	}
	if len(sink.Calls()) != 0 {
		t.Fatalf("unexpected dispatch %v", sink.Calls())
	}
}

func TestGreenActivateTurnsGreenOn(t *testing.T) {
	r, sink, st := newTestResolver(t)
	feed(r, keyword.Green, 3)
	if r.machine.State() != intent.AwaitingAction {
		t.Fatalf("expected AWAITING_ACTION, got %v", r.machine.State())
	}
	feed(r, keyword.Activate, 5)
	calls := sink.Calls()
	if len(calls) != 1 || calls[0] != "green:on" {
		t.Fatalf("expected exactly green:on, got %v", calls)
	}
	if n := len(st.ListType(types.EventDispatched)); n != 1 {
		t.Fatalf("expected one dispatch journal entry, got %d", n)
	}
	if snap := r.Snapshot(); snap.State != "IDLE" || snap.Commands != 1 || snap.Processed != 8 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestActivateRedTurnsRedOn(t *testing.T) {
	r, sink, _ := newTestResolver(t)
	feed(r, keyword.Activate, 3)
	feed(r, keyword.Red, 3)
	if calls := sink.Calls(); len(calls) != 1 || calls[0] != "red:on" {
		t.Fatalf("expected red:on, got %v", calls)
	}
}

func TestEveryPairRoundTrips(t *testing.T) {
	objects := map[keyword.Set]string{keyword.Green: "green", keyword.Red: "red"}
	actions := map[keyword.Set]string{keyword.Activate: "on", keyword.Deactivate: "off"}
	for obj, name := range objects {
		for act, state := range actions {
			r, sink, _ := newTestResolver(t)
			feed(r, obj, 3)
			feed(r, act, 3)
			want := name + ":" + state
			if calls := sink.Calls(); len(calls) != 1 || calls[0] != want {
				t.Errorf("%s: got %v", want, calls)
			}
		}
	}
}

func TestObjectObjectMismatchNoDispatch(t *testing.T) {
	r, sink, st := newTestResolver(t)
	feed(r, keyword.Green, 3)
	feed(r, keyword.Red, 1) // noise breaks the run
	feed(r, keyword.Green, 3)
	if len(sink.Calls()) != 0 {
		t.Fatalf("mismatch must not dispatch, got %v", sink.Calls())
	}
	if r.machine.State() != intent.Idle || !r.machine.Intent().IsEmpty() {
		t.Fatalf("expected cleared IDLE, got %v %v", r.machine.State(), r.machine.Intent())
	}
	if n := len(st.ListType(types.EventMismatch)); n != 1 {
		t.Fatalf("expected one mismatch entry, got %d", n)
	}
}

func TestActionActionMismatch(t *testing.T) {
	r, sink, _ := newTestResolver(t)
	feed(r, keyword.Activate, 3)
	feed(r, keyword.Deactivate, 3)
	if len(sink.Calls()) != 0 || r.machine.State() != intent.Idle {
		t.Fatalf("expected mismatch, calls=%v state=%v", sink.Calls(), r.machine.State())
	}
}

func TestUnknownFloodResetsMidUtterance(t *testing.T) {
	r, sink, st := newTestResolver(t)
	feed(r, keyword.Activate, 3)
	if r.machine.State() != intent.AwaitingObject {
		t.Fatalf("expected AWAITING_OBJECT, got %v", r.machine.State())
	}
	feed(r, keyword.Unknown, 9)
	if r.machine.State() != intent.AwaitingObject {
		t.Fatal("reset must wait for the full unknown run")
	}
	out, changed := r.Handle(keyword.Unknown)
	if !changed || !out.Reset {
		t.Fatalf("tenth unknown should reset, got %+v", out)
	}
	if r.machine.State() != intent.Idle || !r.machine.Intent().IsEmpty() {
		t.Fatal("reset should leave IDLE with empty intent")
	}
	feed(r, keyword.Unknown, 20)
	if n := len(st.ListType(types.EventUnknownReset)); n != 1 {
		t.Fatalf("a held unknown run resets once, got %d", n)
	}
	// The old ACTIVATE is gone: an object now only opens a new utterance
	feed(r, keyword.Green, 3)
	if len(sink.Calls()) != 0 || r.machine.State() != intent.AwaitingAction {
		t.Fatalf("calls=%v state=%v", sink.Calls(), r.machine.State())
	}
}

func TestInterleavedKeywordRestartsUnknownRun(t *testing.T) {
	r, _, st := newTestResolver(t)
	feed(r, keyword.Unknown, 6)
	feed(r, keyword.Green, 1)
	feed(r, keyword.Unknown, 6)
	if n := len(st.ListType(types.EventUnknownReset)); n != 0 {
		t.Fatalf("interleaved keyword should restart the unknown run, got %d resets", n)
	}
}

func TestEmptyNotificationIgnored(t *testing.T) {
	r, _, _ := newTestResolver(t)
	if _, changed := r.Handle(0); changed {
		t.Fatal("empty set should be ignored")
	}
	if r.Snapshot().Processed != 0 {
		t.Fatal("empty set should not be counted")
	}
}

func TestRunProcessesInOrderAndStops(t *testing.T) {
	ch := make(chan keyword.Set, 16)
	sink := &fakeSink{}
	r := New(ChanSource(ch), sink, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	for _, s := range []keyword.Set{keyword.Deactivate, keyword.Deactivate, keyword.Deactivate, keyword.Red, keyword.Red, keyword.Red} {
		ch <- s
	}
	deadline := time.After(2 * time.Second)
	for len(sink.Calls()) == 0 {
		select {
		case <-deadline:
			t.Fatal("no dispatch from Run")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if calls := sink.Calls(); calls[0] != "red:off" {
		t.Fatalf("expected red:off, got %v", calls)
	}
	if !r.Running() {
		t.Fatal("resolver should report running")
	}
	if err := r.Run(ctx); err == nil {
		t.Fatal("second Run should be rejected")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestRunReturnsSourceError(t *testing.T) {
	ch := make(chan keyword.Set)
	close(ch)
	r := New(ChanSource(ch), &fakeSink{}, Options{})
	if err := r.Run(context.Background()); !errors.Is(err, ErrSourceClosed) {
		t.Fatalf("expected ErrSourceClosed, got %v", err)
	}
}
