package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Websockets is the producer/observer endpoint pair.
type Websockets interface {
	HandleProducer(w http.ResponseWriter, r *http.Request)
	HandleObserver(w http.ResponseWriter, r *http.Request)
}

func NewRouter(h *Handlers, ws Websockets) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", h.HandleReady)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/keywords", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.HandleRaise(w, r)
	})
	mux.HandleFunc("/events", getOnly(h.HandleListEvents))
	mux.HandleFunc("/state", getOnly(h.HandleState))
	mux.HandleFunc("/outputs", getOnly(h.HandleOutputs))

	if ws != nil {
		mux.HandleFunc("/ws/producer", ws.HandleProducer)
		mux.HandleFunc("/ws/observer", ws.HandleObserver)
	}
	return mux
}

func getOnly(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fn(w, r)
	}
}
