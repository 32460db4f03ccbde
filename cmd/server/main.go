package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nmalik/paysplit/internal/api"
	"github.com/nmalik/paysplit/internal/auth"
	"github.com/nmalik/paysplit/internal/config"
	"github.com/nmalik/paysplit/internal/scheduler"
	"github.com/nmalik/paysplit/internal/service"
	"github.com/nmalik/paysplit/internal/storage/sqlite"
	"github.com/nmalik/paysplit/pkg/addrbook"
	"github.com/nmalik/paysplit/pkg/ledgerclient"
	"github.com/nmalik/paysplit/pkg/logging"
	"github.com/nmalik/paysplit/pkg/rabbitmq"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	var notifier service.Notifier = service.LogNotifier{}
	if cfg.AMQPURL != "" {
		producer, err := rabbitmq.NewNotificationProducer(cfg.AMQPURL)
		if err != nil {
			slog.Error("Failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		notifier = producer
		slog.Info("Notification producer connected")
	}

	var book service.AddressBook
	if cfg.AddressBookURL != "" {
		book = addrbook.NewClient(cfg.AddressBookURL)
	}

	groupSvc := service.NewGroupService(store)
	paymentSvc := service.NewPaymentService(store, notifier, book)
	requestSvc := service.NewRequestService(store, notifier, book, paymentSvc)
	scheduleSvc := service.NewScheduleService(store)

	if cfg.LedgerURL != "" {
		jobs := scheduler.NewJobs(scheduleSvc, ledgerclient.NewClient(cfg.LedgerURL), slog.Default())
		runner := scheduler.New(jobs, slog.Default(), cfg.SchedulePollCron)
		runner.Start()
		defer func() { <-runner.Stop().Done() }()
	} else {
		slog.Warn("LEDGER_URL not set, recurring schedules will not be executed")
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTokenDuration)
	handler := api.NewHandler(groupSvc, paymentSvc, requestSvc, scheduleSvc)
	router := api.NewRouter(handler, jwtManager)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}
