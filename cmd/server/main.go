package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/blindtaste/internal/app"
	"github.com/shrimpsizemoose/blindtaste/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to start service: %v", err)
	}
	defer service.Close()

	mux := http.NewServeMux()
	handlers.NewTastingHandler(service).Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    service.Config.Server.Port,
		Handler: mux,
	}

	logger.Info.Printf("Starting blindtaste server on %s", service.Config.Server.Port)
	logger.Debug.Println("Requiring headers:")
	for _, h := range service.Config.API.RequiredHeaders {
		logger.Debug.Printf("  %s: %s", h.Name, h.Value)
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error.Fatalf("Blindtaste server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error.Printf("Graceful shutdown failed: %v", err)
	}
}
