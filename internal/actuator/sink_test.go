package actuator

import (
	"fmt"
	"testing"

	"kwhmi/agent/internal/gpio"
)

func TestLogSinkWording(t *testing.T) {
	var lines []string
	s := NewLogSink(func(f string, a ...any) { lines = append(lines, fmt.Sprintf(f, a...)) })
	s.SetOn("green")
	s.SetOff("RED")
	if len(lines) != 2 || lines[0] != "Green on" || lines[1] != "Red off" {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestPortSinkBoardMapping(t *testing.T) {
	port := gpio.NewMemPort(0)
	s := NewPortSink(port, map[string]gpio.Pin{
		"green": {Bit: 5, ActiveLow: true},
		"red":   {Bit: 4, ActiveLow: true},
	}, nil)
	if err := s.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if port.Value() != 1<<5|1<<4 {
		t.Fatalf("setup should turn both outputs off (bits set), port=%#x", port.Value())
	}

	s.SetOn("green")
	st, err := s.States()
	if err != nil {
		t.Fatal(err)
	}
	if !st["green"] || st["red"] {
		t.Fatalf("unexpected states %v", st)
	}
	if port.Value() != 1<<4 {
		t.Fatalf("green on should clear bit 5 only, port=%#x", port.Value())
	}

	s.SetOn("green")
	if port.Value() != 1<<4 {
		t.Fatal("repeating on must be harmless")
	}
	s.SetOff("green")
	if port.Value() != 1<<5|1<<4 {
		t.Fatalf("green off, port=%#x", port.Value())
	}
}

func TestPortSinkUnknownOutput(t *testing.T) {
	port := gpio.NewMemPort(0)
	var logged int
	s := NewPortSink(port, map[string]gpio.Pin{"green": {Bit: 1}}, func(string, ...any) { logged++ })
	s.SetOn("blue")
	if port.Writes() != 0 || logged != 1 {
		t.Fatalf("unknown output should only log, writes=%d logged=%d", port.Writes(), logged)
	}
}

type recordSink struct{ calls []string }

func (r *recordSink) SetOn(id string)  { r.calls = append(r.calls, id+":on") }
func (r *recordSink) SetOff(id string) { r.calls = append(r.calls, id+":off") }

func TestMultiFansOut(t *testing.T) {
	a, b := &recordSink{}, &recordSink{}
	m := Multi{a, b}
	m.SetOn("red")
	m.SetOff("red")
	for _, r := range []*recordSink{a, b} {
		if len(r.calls) != 2 || r.calls[0] != "red:on" || r.calls[1] != "red:off" {
			t.Fatalf("unexpected calls %v", r.calls)
		}
	}
}
