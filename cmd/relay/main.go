package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	chathttp "github.com/AlibekovAA/relay-hub/internal/chat/http"
	"github.com/AlibekovAA/relay-hub/internal/common/bootstrap"
	commonhttp "github.com/AlibekovAA/relay-hub/internal/common/http"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
	srv "github.com/AlibekovAA/relay-hub/internal/common/server"
)

func main() {
	app, err := bootstrap.NewRelayApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
	defer app.Log.Close()

	log := app.Log
	cfg := app.Config

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.Hub.Run(ctx)
	}()

	handler := chathttp.NewHandler(app.Hub, app.Limiter, cfg, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log, app.Hub.Stats))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/vars", expvar.Handler())
	mux.Handle("/api/", commonhttp.BuildBaseHandler(log, handler.APIRoutes()))
	mux.HandleFunc("/ws", handler.WebSocket)

	expvar.Publish("relay", expvar.Func(func() any { return app.Hub.Stats() }))

	server := srv.NewServer(cfg.HTTPPort, mux)

	log.WithFields(ctx, logger.Fields{
		"port":    cfg.HTTPPort,
		"workers": cfg.ProcessorWorkers,
		"action":  "relay_starting",
	}).Info("relay hub starting")

	srv.StartWithGracefulShutdownAndHooks(server, log, "relay", []srv.ShutdownHook{
		func(context.Context) error {
			app.Hub.Shutdown()
			return nil
		},
		func(context.Context) error {
			app.Limiter.Stop()
			return nil
		},
	})

	cancel()
	wg.Wait()
}
