package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"kwhmi/agent/internal/actuator"
	"kwhmi/agent/internal/api"
	"kwhmi/agent/internal/config"
	"kwhmi/agent/internal/eventgroup"
	"kwhmi/agent/internal/gpio"
	"kwhmi/agent/internal/health"
	"kwhmi/agent/internal/logging"
	"kwhmi/agent/internal/resolver"
	"kwhmi/agent/internal/rpc"
	"kwhmi/agent/internal/source"
	"kwhmi/agent/internal/store"
	"kwhmi/agent/internal/workerws"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.SetLevel(cfg.Server.LogLevel)

	vocab, err := cfg.Vocabulary()
	if err != nil {
		log.Fatalf("objects: %v", err)
	}

	st := store.New(cfg.Journal.MaxEvents)
	group := eventgroup.New()

	// Sinks: the configured board output plus every websocket observer.
	reg := workerws.NewRegistry()
	hub := workerws.NewHub(reg, 64)
	sinks := actuator.Multi{hub}
	var port *actuator.PortSink
	if cfg.Sink.Kind == "log" || cfg.Sink.Kind == "both" {
		sinks = append(sinks, actuator.NewLogSink(logging.Logf("out")))
	}
	if cfg.Sink.Kind == "gpio" || cfg.Sink.Kind == "both" {
		port = actuator.NewPortSink(gpio.NewMemPort(0), cfg.Pins(), logging.Logf("gpio"))
		if err := port.Setup(); err != nil {
			log.Fatalf("gpio setup: %v", err)
		}
		sinks = append(sinks, port)
	}

	res := resolver.New(group, sinks, resolver.Options{
		DebounceThreshold:     cfg.Resolver.DebounceThreshold,
		UnknownResetThreshold: cfg.Resolver.UnknownResetThreshold,
		Vocabulary:            vocab,
		Journal:               st,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := res.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[hmi] resolver stopped: %v", err)
			stop()
		}
	}()

	// gRPC producers
	rpcSrv := rpc.NewServer(vocab, group)
	gs := grpc.NewServer()
	rpc.Register(gs, rpcSrv)
	if cfg.RPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.RPC.Addr)
		if err != nil {
			log.Fatalf("listen %s: %v", cfg.RPC.Addr, err)
		}
		rpcSrv.SetReady(true)
		go func() {
			log.Printf("grpc listening on %s", cfg.RPC.Addr)
			if err := gs.Serve(lis); err != nil {
				log.Printf("grpc serve: %v", err)
			}
		}()
	}

	// Subprocess keyword spotter
	if cfg.Source.Cmd != "" {
		src := source.NewExec(cfg.Source.Cmd, vocab, group, st)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = src.Supervise(ctx)
		}()
	}

	wss := workerws.NewServer(vocab, group, reg, st)
	wss.TokenSecret = cfg.Producer.TokenSecret
	wss.TokenSkewSecs = cfg.Producer.TokenSkewSecs

	checks := []health.Check{health.Resolver(res), health.EventGroup(group)}
	if cfg.RPC.Addr != "" {
		checks = append(checks, health.RPC(rpcSrv))
	}
	var outputs api.OutputReader
	if port != nil {
		outputs = port
		checks = append(checks, health.Outputs(port))
	}
	h := api.NewHandlers(vocab, group, st, res, outputs, checks...)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           logMiddleware(api.NewRouter(h, wss)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Printf("shutdown signal received; stopping server...")
		group.Close()
		gs.GracefulStop()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	log.Printf("server starting on %s (sink=%s objects=%v)", cfg.Server.Addr, cfg.Sink.Kind, vocab.ObjectNames())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}
	wg.Wait()
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Debug("http", "%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
