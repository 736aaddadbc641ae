package health

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type CheckResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency_ms"`
	Error   string        `json:"error,omitempty"`
}

type HealthStatus struct {
	OK        bool          `json:"ok"`
	Checks    []CheckResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

func (h HealthStatus) String() string {
	status := "OK"
	if !h.OK {
		status = "FAIL"
	}
	s := fmt.Sprintf("Health: %s\n", status)
	for _, c := range h.Checks {
		mark := "✓"
		if !c.OK {
			mark = "✗"
		}
		s += fmt.Sprintf("  %s %s (%dms)", mark, c.Name, c.Latency.Milliseconds())
		if c.Error != "" {
			s += fmt.Sprintf(" - %s", c.Error)
		}
		s += "\n"
	}
	return s
}

// Check is a named probe. A nil error means healthy.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// CheckAll runs all checks and returns combined status
func CheckAll(ctx context.Context, checks ...Check) HealthStatus {
	results := make([]CheckResult, 0, len(checks))
	allOK := true
	for _, c := range checks {
		start := time.Now()
		res := CheckResult{Name: c.Name, OK: true}
		if err := c.Fn(ctx); err != nil {
			res.OK = false
			res.Error = err.Error()
			allOK = false
		}
		res.Latency = time.Since(start)
		results = append(results, res)
	}
	return HealthStatus{
		OK:        allOK,
		Checks:    results,
		CheckedAt: time.Now().UTC(),
	}
}

// Resolver fails when the worker loop is not running.
func Resolver(r interface{ Running() bool }) Check {
	return Check{Name: "resolver", Fn: func(context.Context) error {
		if !r.Running() {
			return errors.New("resolver loop not running")
		}
		return nil
	}}
}

// EventGroup fails once the group has been closed.
func EventGroup(g interface{ Closed() bool }) Check {
	return Check{Name: "event_group", Fn: func(context.Context) error {
		if g.Closed() {
			return errors.New("event group closed")
		}
		return nil
	}}
}

// Outputs reads back the actuator port.
func Outputs(s interface {
	States() (map[string]bool, error)
}) Check {
	return Check{Name: "outputs", Fn: func(context.Context) error {
		_, err := s.States()
		return err
	}}
}

// RPC fails until the gRPC listener is serving.
func RPC(s interface{ Ready() bool }) Check {
	return Check{Name: "rpc", Fn: func(context.Context) error {
		if !s.Ready() {
			return errors.New("grpc server not ready")
		}
		return nil
	}}
}
