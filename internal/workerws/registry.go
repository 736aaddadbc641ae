package workerws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	ws "nhooyr.io/websocket"
)

// observerConn is the part of *ws.Conn the registry uses.
type observerConn interface {
	Write(ctx context.Context, typ ws.MessageType, p []byte) error
	Close(code ws.StatusCode, reason string) error
}

// Registry keeps the connected observers.
type Registry struct {
	mu    sync.Mutex
	conns map[string]observerConn

	// WriteTimeout bounds each observer write on its own.
	WriteTimeout time.Duration
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]observerConn), WriteTimeout: writeTimeout}
}

// Add registers c and returns its connection id.
func (r *Registry) Add(c observerConn) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.conns[id] = c
	n := len(r.conns)
	r.mu.Unlock()
	gaugeClients.WithLabelValues("observer").Set(float64(n))
	return id
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	n := len(r.conns)
	r.mu.Unlock()
	gaugeClients.WithLabelValues("observer").Set(float64(n))
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Broadcast writes v to every observer concurrently, each write with its
// own timeout. Observers that fail the write are closed and dropped. It
// returns the number of successful writes.
func (r *Registry) Broadcast(ctx context.Context, v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	r.mu.Lock()
	conns := make(map[string]observerConn, len(r.conns))
	for id, c := range r.conns {
		conns[id] = c
	}
	r.mu.Unlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sent int
	)
	for id, c := range conns {
		wg.Add(1)
		go func(id string, c observerConn) {
			defer wg.Done()
			wctx, cancel := context.WithTimeout(ctx, r.WriteTimeout)
			defer cancel()
			if err := c.Write(wctx, ws.MessageText, b); err != nil {
				_ = c.Close(ws.StatusPolicyViolation, "write failed")
				r.Remove(id)
				return
			}
			mu.Lock()
			sent++
			mu.Unlock()
		}(id, c)
	}
	wg.Wait()
	return sent
}
