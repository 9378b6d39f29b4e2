package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Candy2803/mpesa/internal/config"
	httpd "github.com/Candy2803/mpesa/internal/delivery/http"
	"github.com/Candy2803/mpesa/internal/mpesa"
	"github.com/Candy2803/mpesa/internal/repository"
	"github.com/Candy2803/mpesa/internal/usecase"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	repo, err := repository.NewSQLiteRepo(cfg.SQLiteDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer repo.Close()

	gateway := mpesa.NewClient(cfg, logger)

	var relay usecase.Notifier
	if cfg.RelayURL != "" {
		relay = usecase.NewRelayNotifier(cfg.RelayURL, time.Duration(cfg.HTTPTimeoutSeconds)*time.Second, logger)
	}

	stk := usecase.NewSTKPushUsecase(repo, gateway, logger)
	reconcile := usecase.NewReconcileUsecase(repo, relay, logger)

	h := httpd.NewHandler(stk, reconcile, repo, logger)

	addr := ":" + cfg.AppPort
	logger.Info("server listening", "addr", addr, "env", cfg.Environment)
	log.Fatal(http.ListenAndServe(addr, h.Routes()))
}
