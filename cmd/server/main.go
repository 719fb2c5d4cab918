package main

import (
	"context"
	netHttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/razorpay/razorpay-go"

	"eduplatform/config"
	"eduplatform/db"
	"eduplatform/http"
	"eduplatform/http/handlers"
	"eduplatform/logger"
	"eduplatform/queue"
	"eduplatform/services"
	"eduplatform/services/kafka"
	"eduplatform/store"
)

func main() {
	cfg := config.Load()

	conn, err := db.Connect(cfg.ConnString())
	if err != nil {
		logger.Fatal("Error initializing database: %v", err)
	}
	defer conn.Close()

	enrollments := store.NewPostgresEnrollments(conn)
	courses := store.NewPostgresCourses(conn)

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	events := services.NewEvents(producer)

	razorpayClient := razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	payments := services.NewPaymentService(cfg, razorpayClient.Order, enrollments, events)

	zoomClient := services.NewZoomClient(cfg)
	if !zoomClient.Configured() {
		logger.Warn("Zoom credentials not configured; meetings will use the static fallback link")
	}

	callQueue := queue.New(queue.Options{})

	feed, err := store.NewChangeFeed(cfg.ConnString())
	if err != nil {
		logger.Fatal("Error opening change feed: %v", err)
	}
	defer feed.Close()

	provisioner := services.NewProvisioner(cfg, courses, zoomClient, callQueue, events, feed.Changes())
	provisioner.Start()

	mux := netHttp.NewServeMux()
	http.SetupRoutes(mux, cfg.AllowedOrigin,
		handlers.NewPaymentHandler(payments),
		handlers.NewEnrollmentHandler(enrollments, courses),
		handlers.NewHealthHandler(conn, producer),
	)

	server := &netHttp.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != netHttp.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	<-sigChan
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server: %v", err)
	}

	provisioner.Stop()

	if err := producer.Close(); err != nil {
		logger.Error("Error closing Kafka producer: %v", err)
	}

	logger.Info("Server shutdown complete")
}
