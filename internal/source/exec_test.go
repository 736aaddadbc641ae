package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"kwhmi/agent/internal/keyword"
	"kwhmi/agent/internal/store"
	"kwhmi/agent/internal/types"
)

func TestParseLine(t *testing.T) {
	v := keyword.Default()
	cases := []struct {
		line string
		want keyword.Set
		ok   bool
		err  bool
	}{
		{"", 0, false, false},
		{"   ", 0, false, false},
		{"# comment", 0, false, false},
		{"green", keyword.Green, true, false},
		{"GREEN|ACTIVATE", keyword.Green | keyword.Activate, true, false},
		{"red, deactivate", keyword.Red | keyword.Deactivate, true, false},
		{"unknown", keyword.Unknown, true, false},
		{`{"keywords":["red","activate"]}`, keyword.Red | keyword.Activate, true, false},
		{`{"keyword":"green"}`, keyword.Green, true, false},
		{`{"keywords":[]}`, 0, false, true},
		{`{"keywords":`, 0, false, true},
		{"purple", 0, false, true},
	}
	for _, c := range cases {
		got, ok, err := ParseLine(v, c.line)
		if (err != nil) != c.err || ok != c.ok || got != c.want {
			t.Errorf("%q: got %v/%v/%v want %v/%v err=%v", c.line, got, ok, err, c.want, c.ok, c.err)
		}
	}
}

type recorder struct {
	mu  sync.Mutex
	got []keyword.Set
}

func (r *recorder) Raise(bits keyword.Set) {
	r.mu.Lock()
	r.got = append(r.got, bits)
	r.mu.Unlock()
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "kws.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunOnceRaisesLines(t *testing.T) {
	script := writeScript(t, "echo green\necho '# warming up'\necho purple\necho '{\"keywords\":[\"activate\"]}'\necho oops >&2\n")
	rec := &recorder{}
	st := store.New(10)
	e := NewExec(script, nil, rec, st)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.RunOnce(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rec.got) != 2 || rec.got[0] != keyword.Green || rec.got[1] != keyword.Activate {
		t.Fatalf("raised %v", rec.got)
	}
	if e.Runs() != 1 || e.Running() {
		t.Fatalf("runs=%d running=%v", e.Runs(), e.Running())
	}
	exits := st.ListType(types.EventSourceExit)
	if len(exits) != 1 {
		t.Fatalf("expected one exit event, got %d", len(exits))
	}
}

func TestRunOnceSkipsOverlongLine(t *testing.T) {
	script := writeScript(t, "head -c 70000 /dev/zero | tr '\\0' 'a'\necho\nfor i in 1 2 3 4 5; do echo green; done\n")
	rec := &recorder{}
	e := NewExec(script, nil, rec, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.RunOnce(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rec.got) != 5 {
		t.Fatalf("lines after the long one should still be raised, got %d", len(rec.got))
	}
	for _, s := range rec.got {
		if s != keyword.Green {
			t.Fatalf("unexpected set %v", s)
		}
	}
}

func TestReadLinesHandlesUnterminatedTail(t *testing.T) {
	rec := &recorder{}
	e := NewExec("unused", nil, rec, nil)
	e.readLines(strings.NewReader("red\n" + strings.Repeat("x", maxLine+10) + "\nactivate"))
	if len(rec.got) != 2 || rec.got[0] != keyword.Red || rec.got[1] != keyword.Activate {
		t.Fatalf("raised %v", rec.got)
	}
}

func TestStderrDrainedAfterOverlongLine(t *testing.T) {
	r := strings.NewReader(strings.Repeat("y", 70000) + "\nmore output\n")
	logLines(r)
	if r.Len() != 0 {
		t.Fatalf("%d bytes left unread", r.Len())
	}
}

func TestRunOnceReportsFailure(t *testing.T) {
	script := writeScript(t, "exit 3\n")
	e := NewExec(script, nil, &recorder{}, nil)
	if err := e.RunOnce(context.Background()); err == nil {
		t.Fatal("expected exit error")
	}
	if err := NewExec("", nil, &recorder{}, nil).RunOnce(context.Background()); err == nil {
		t.Fatal("empty command should fail")
	}
}

func TestSuperviseStopsOnCancel(t *testing.T) {
	script := writeScript(t, "echo red\n")
	rec := &recorder{}
	e := NewExec(script, nil, rec, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := e.Supervise(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.got) == 0 {
		t.Fatal("supervised command never ran")
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	if d := backoff(0); d < backoffBase || d >= 2*backoffBase {
		t.Fatalf("first backoff %s", d)
	}
	if d := backoff(50); d > backoffMax+backoffBase {
		t.Fatalf("backoff not capped: %s", d)
	}
}
