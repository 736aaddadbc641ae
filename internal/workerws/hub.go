package workerws

import (
	"context"
	"time"

	"kwhmi/agent/internal/logging"
)

const writeTimeout = 2 * time.Second

// Hub is an actuation sink that forwards commands to websocket observers.
// Commands are queued so the resolver never blocks on a slow client.
type Hub struct {
	reg   *Registry
	queue chan Message
}

func NewHub(reg *Registry, size int) *Hub {
	if size < 1 {
		size = 1
	}
	return &Hub{reg: reg, queue: make(chan Message, size)}
}

func (h *Hub) SetOn(id string)  { h.enqueue(commandMessage(id, true)) }
func (h *Hub) SetOff(id string) { h.enqueue(commandMessage(id, false)) }

func (h *Hub) enqueue(m Message) {
	select {
	case h.queue <- m:
	default:
		metricDrops.Inc()
		logging.Info("ws", "observer queue full, dropping %s %v", m.Object, *m.On)
	}
}

// Run writes queued commands until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-h.queue:
			h.reg.Broadcast(ctx, m)
		}
	}
}

func commandMessage(id string, on bool) Message {
	return Message{Type: TypeCommand, TsMs: time.Now().UnixMilli(), Object: id, On: &on}
}
