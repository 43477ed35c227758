package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/betbot/gokalshi/internal/ports"
	"github.com/betbot/gokalshi/internal/services"
	"github.com/betbot/gokalshi/internal/state"
	"github.com/betbot/gokalshi/internal/storage"
	"github.com/betbot/gokalshi/kalshi/client"
	"github.com/betbot/gokalshi/kalshi/signing"
	"github.com/betbot/gokalshi/pkg/config"
	"github.com/betbot/gokalshi/pkg/logger"
	"github.com/betbot/gokalshi/pkg/secretstore"
	"github.com/betbot/gokalshi/pkg/shutdown"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("GOKALSHI_CONFIG"), "YAML config file path (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
	}); err != nil {
		fatal(err)
	}

	signer, err := buildSigner(cfg)
	if err != nil {
		fatal(err)
	}
	logger.Infof("tracking event %s on %s (%s)", cfg.EventTicker, cfg.Environment, cfg.BaseURL())

	exchange := client.New(cfg.BaseURL(), signer)
	store := state.NewStore()
	messages := services.NewMessageLog()
	status := services.NewStatus(store, messages)

	var activity *storage.ActivityLog
	if cfg.ActivityDBPath != "" {
		activity, err = storage.OpenActivityLog(cfg.ActivityDBPath)
		if err != nil {
			fatal(err)
		}
	}

	gateway := services.NewGateway(exchange, store, messages, activityOrNil(activity))
	poller := services.NewPoller(exchange, store, cfg.EventTicker, cfg.MarketPollInterval(), cfg.OrderPollInterval())
	poller.FilterTickers(cfg.Tickers)
	hub := ports.NewHub(status, poller.Updates())

	ctx, cancel := context.WithCancel(context.Background())
	poller.Start(ctx)
	go hub.Run(ctx)
	messages.Addf("tracking started for %s", cfg.EventTicker)

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           ports.NewServer(status, gateway, activity, hub).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("listening on %s", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server error: %v", err)
		}
	}()

	mgr := shutdown.NewManager()
	mgr.OnShutdown(func(shutdownCtx context.Context, _ *sync.WaitGroup) {
		_ = httpSrv.Shutdown(shutdownCtx)
	})
	mgr.OnShutdown(func(shutdownCtx context.Context, _ *sync.WaitGroup) {
		cancel()
		if activity != nil {
			_ = activity.Close()
		}
	})

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	mgr.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}

// buildSigner resolves credentials from the badger store when configured,
// falling back to the key file from config/env.
func buildSigner(cfg *config.Config) (*signing.Signer, error) {
	if cfg.SecretStorePath != "" {
		encKey, err := secretstore.ParseKey(cfg.SecretStoreKey)
		if err != nil {
			return nil, err
		}
		ss, err := secretstore.Open(secretstore.OpenOptions{
			Path:          cfg.SecretStorePath,
			EncryptionKey: encKey,
			ReadOnly:      true,
		})
		if err != nil {
			return nil, err
		}
		defer ss.Close()

		keyID, ok, err := ss.GetString(secretstore.KeyIDKey(cfg.Environment))
		if err != nil {
			return nil, err
		}
		if ok {
			pemStr, found, err := ss.GetString(secretstore.PrivateKeyKey(cfg.Environment))
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, fmt.Errorf("secret store has key id but no private key for %s", cfg.Environment)
			}
			return signing.NewSignerFromPEM(keyID, []byte(pemStr))
		}
		logger.Warnf("no credentials for %s in secret store, falling back to key file", cfg.Environment)
	}
	if cfg.KeyID == "" || cfg.KeyFile == "" {
		return nil, fmt.Errorf("credentials missing: set key_id and key_file or populate the secret store")
	}
	return signing.NewSignerFromFile(cfg.KeyID, cfg.KeyFile)
}

func activityOrNil(a *storage.ActivityLog) services.ActivityRecorder {
	if a == nil {
		return nil
	}
	return a
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
