package main

import (
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/serenespa/membership/pkg/config"
	"github.com/serenespa/membership/pkg/events"
	"github.com/serenespa/membership/pkg/logger"
	mw "github.com/serenespa/membership/pkg/middleware"
)

// The notifier worker tails every workflow and admin event off the bus
// and writes a structured audit line for each. It runs as a queue
// group, so scaling it out never duplicates lines.

const queueGroup = "notifier"

func main() {
	cfg := config.Load()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	subjects := []string{"signup.>", "admin.>"}
	for _, subject := range subjects {
		if err := eventBus.QueueSubscribe(subject, queueGroup, logEvent); err != nil {
			logger.Error("Failed to subscribe", "error", err, "subject", subject)
			os.Exit(1)
		}
		logger.Info("Subscribed", "subject", subject, "queue", queueGroup)
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("notifier"))
	r.Use(mw.Logging)
	r.Use(mw.Health)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}
	go func() {
		logger.Info("Notifier health server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Notifier health server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Notifier shutting down")
	srv.Close()
}

func logEvent(msg *events.Message) {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		logger.Warn("Received unparseable event", "subject", msg.Subject, "error", err)
		return
	}

	attrs := []interface{}{"subject", msg.Subject, "received_at", msg.Timestamp}
	for k, v := range payload {
		attrs = append(attrs, k, v)
	}
	logger.Info("Event received", attrs...)
}
