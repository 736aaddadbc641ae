package health

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type flag bool

func (f flag) Running() bool { return bool(f) }
func (f flag) Closed() bool  { return bool(f) }
func (f flag) Ready() bool   { return bool(f) }

type states struct{ err error }

func (s states) States() (map[string]bool, error) { return map[string]bool{"green": true}, s.err }

func TestCheckAllHealthy(t *testing.T) {
	st := CheckAll(context.Background(),
		Resolver(flag(true)),
		EventGroup(flag(false)),
		Outputs(states{}),
		RPC(flag(true)),
	)
	if !st.OK || len(st.Checks) != 4 {
		t.Fatalf("expected healthy, got %+v", st)
	}
	if !strings.HasPrefix(st.String(), "Health: OK") {
		t.Fatalf("unexpected summary %q", st.String())
	}
}

func TestCheckAllReportsFailures(t *testing.T) {
	st := CheckAll(context.Background(),
		Resolver(flag(false)),
		EventGroup(flag(true)),
		Outputs(states{err: errors.New("port read failed")}),
	)
	if st.OK {
		t.Fatal("expected failure")
	}
	for _, c := range st.Checks {
		if c.OK || c.Error == "" {
			t.Errorf("%s should fail with a reason, got %+v", c.Name, c)
		}
	}
	out := st.String()
	if !strings.Contains(out, "FAIL") || !strings.Contains(out, "port read failed") {
		t.Fatalf("summary missing details: %q", out)
	}
}
