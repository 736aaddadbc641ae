// Package actuator holds the command sinks the resolver dispatches to.
// Sinks are fire-and-forget: failures are logged and counted, never
// returned to the resolver.
package actuator

import (
	"sort"
	"strings"
	"sync"

	"kwhmi/agent/internal/gpio"
)

// Sink turns named outputs on or off. Repeating a command is harmless.
type Sink interface {
	SetOn(id string)
	SetOff(id string)
}

// LogSink only prints, for boards without wired outputs.
type LogSink struct {
	logf func(string, ...any)
}

func NewLogSink(logf func(string, ...any)) *LogSink { return &LogSink{logf: logf} }

func (s *LogSink) SetOn(id string)  { s.write(id, true) }
func (s *LogSink) SetOff(id string) { s.write(id, false) }

func (s *LogSink) write(id string, on bool) {
	metricWrites.WithLabelValues("log", id, stateLabel(on)).Inc()
	if s.logf != nil {
		s.logf("%s %s", title(id), stateLabel(on))
	}
}

// PortSink drives one gpio bit per output.
type PortSink struct {
	mu   sync.Mutex
	port gpio.Port
	pins map[string]gpio.Pin
	logf func(string, ...any)
}

func NewPortSink(port gpio.Port, pins map[string]gpio.Pin, logf func(string, ...any)) *PortSink {
	cp := make(map[string]gpio.Pin, len(pins))
	for id, p := range pins {
		cp[strings.ToLower(id)] = p
	}
	return &PortSink{port: port, pins: cp, logf: logf}
}

// Setup drives every output off, like the board bring-up does.
func (s *PortSink) Setup() error {
	for _, id := range s.Outputs() {
		if err := s.drive(id, false); err != nil {
			return err
		}
	}
	return nil
}

func (s *PortSink) SetOn(id string)  { s.apply(id, true) }
func (s *PortSink) SetOff(id string) { s.apply(id, false) }

func (s *PortSink) apply(id string, on bool) {
	if err := s.drive(id, on); err != nil {
		metricErrors.WithLabelValues("gpio").Inc()
		if s.logf != nil {
			s.logf("gpio %s %s failed: %v", id, stateLabel(on), err)
		}
		return
	}
	metricWrites.WithLabelValues("gpio", strings.ToLower(id), stateLabel(on)).Inc()
}

func (s *PortSink) drive(id string, on bool) error {
	pin, ok := s.pins[strings.ToLower(id)]
	if !ok {
		return &UnknownOutputError{ID: id}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return gpio.Drive(s.port, pin, on)
}

// Outputs lists configured output ids, sorted.
func (s *PortSink) Outputs() []string {
	out := make([]string, 0, len(s.pins))
	for id := range s.pins {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// States reads back the logical level of every output.
func (s *PortSink) States() (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.pins))
	for id, pin := range s.pins {
		on, err := gpio.Level(s.port, pin)
		if err != nil {
			return nil, err
		}
		out[id] = on
	}
	return out, nil
}

// UnknownOutputError is returned for ids with no pin mapping.
type UnknownOutputError struct{ ID string }

func (e *UnknownOutputError) Error() string { return "no output mapped for " + e.ID }

// Multi sends every command to each sink in order.
type Multi []Sink

func (m Multi) SetOn(id string) {
	for _, s := range m {
		s.SetOn(id)
	}
}

func (m Multi) SetOff(id string) {
	for _, s := range m {
		s.SetOff(id)
	}
}

func stateLabel(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func title(id string) string {
	if id == "" {
		return id
	}
	return strings.ToUpper(id[:1]) + strings.ToLower(id[1:])
}
