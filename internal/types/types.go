package types

import "time"

// Journal event types.
const (
	EventConfirmed    = "keyword_confirmed"
	EventTransition   = "state_transition"
	EventMismatch     = "grammar_mismatch"
	EventDispatched   = "command_dispatched"
	EventUnresolved   = "intent_unresolved"
	EventUnknownReset = "unknown_reset"
	EventTruncated    = "events_truncated"
	EventProducer     = "producer_connected"
	EventProducerGone = "producer_disconnected"
	EventSourceExit   = "source_exit"
)

type Event struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Ts      time.Time      `json:"timestamp"`
	Payload map[string]any `json:"payload,omitempty"`
}
