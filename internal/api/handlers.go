package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"kwhmi/agent/internal/health"
	"kwhmi/agent/internal/keyword"
	"kwhmi/agent/internal/resolver"
	"kwhmi/agent/internal/store"
)

type Raiser interface {
	Raise(bits keyword.Set)
}

type Snapshotter interface {
	Snapshot() resolver.Snapshot
}

// OutputReader reads back actuator levels. Only port-backed sinks have one.
type OutputReader interface {
	States() (map[string]bool, error)
}

type Handlers struct {
	vocab   *keyword.Vocabulary
	raiser  Raiser
	store   *store.Store
	state   Snapshotter
	outputs OutputReader
	checks  []health.Check
}

func NewHandlers(vocab *keyword.Vocabulary, raiser Raiser, st *store.Store, state Snapshotter, outputs OutputReader, checks ...health.Check) *Handlers {
	return &Handlers{vocab: vocab, raiser: raiser, store: st, state: state, outputs: outputs, checks: checks}
}

// HandleRaise injects one notification. Keywords come from ?k= or a JSON
// body {"keywords":[...]}.
func (h *Handlers) HandleRaise(w http.ResponseWriter, r *http.Request) {
	var (
		set keyword.Set
		err error
	)
	if k := r.URL.Query().Get("k"); k != "" {
		set, err = h.vocab.Parse(k)
	} else {
		var body struct {
			Keywords []string `json:"keywords"`
		}
		if derr := json.NewDecoder(r.Body).Decode(&body); derr != nil {
			http.Error(w, "invalid body: "+derr.Error(), http.StatusBadRequest)
			return
		}
		set, err = h.vocab.ParseList(body.Keywords)
	}
	if err != nil {
		metricRaise.WithLabelValues("rejected").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	metricRaise.WithLabelValues("accepted").Inc()
	h.raiser.Raise(set)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"ok":       true,
		"keywords": h.vocab.Names(set),
	})
}

func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if typ := q.Get("type"); typ != "" {
		writeJSON(w, http.StatusOK, map[string]any{"events": h.store.ListType(typ)})
		return
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": h.store.List(limit)})
}

func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"resolver": h.state.Snapshot(),
		"objects":  h.vocab.ObjectNames(),
	})
}

func (h *Handlers) HandleOutputs(w http.ResponseWriter, r *http.Request) {
	if h.outputs == nil {
		http.Error(w, "no readable outputs configured", http.StatusNotFound)
		return
	}
	states, err := h.outputs.States()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"outputs": states})
}

func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	st := health.CheckAll(r.Context(), h.checks...)
	code := http.StatusOK
	if !st.OK {
		code = http.StatusServiceUnavailable
	}
	if strings.Contains(r.Header.Get("Accept"), "text/plain") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(st.String()))
		return
	}
	writeJSON(w, code, st)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
