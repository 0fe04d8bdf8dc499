package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/batsdk/wowclass-enlace/auth"
	"github.com/batsdk/wowclass-enlace/contract"
	"github.com/batsdk/wowclass-enlace/infrastructure/httpapi"
	"github.com/batsdk/wowclass-enlace/infrastructure/ws"
	"github.com/batsdk/wowclass-enlace/internal"
	"github.com/batsdk/wowclass-enlace/observability"
	"github.com/batsdk/wowclass-enlace/runtime"
	"github.com/batsdk/wowclass-enlace/runtime/workers"
	"github.com/batsdk/wowclass-enlace/services"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 10 * time.Second

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// It ensures all 'defer' statements are executed before the program exits and keeps the
// initialization logic testable outside the main entry point.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Core wiring: registry, relay, liveness, auth
	signer := auth.NewSigner([]byte(config.JWTSecret), config.AuthTokenDuration)
	registry := runtime.NewRegistry()
	relay := runtime.NewRelay(registry, logger)
	monitor := observability.NewMonitor()
	chatService := services.NewChatService(registry, relay, monitor, logger)

	directory := httpapi.NewDirectory()
	if config.SeedAccounts {
		if err := seedAccounts(directory); err != nil {
			return exitRuntime, fmt.Errorf("seeding demo accounts: %w", err)
		}
		logger.Info("Demo accounts seeded", "teacher", "teacher@demo.local", "student", "student1")
	}

	sup := workers.NewSupervisor(logger)
	sup.Add(workers.NewReaper(registry, config.SweepInterval, monitor, logger))

	// 3. HTTP surface: websocket endpoint, auth routes, stats
	mux := http.NewServeMux()
	mux.Handle("/api/ws/chat", ws.NewHandler(signer, chatService, monitor, logger))
	httpapi.NewHandler(directory, signer, signer, config.SecureCookies, logger).Register(mux)
	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(monitor.Snapshot())
	})

	server := &http.Server{
		Addr:    config.Addr(),
		Handler: mux,
	}

	// 4. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	// 5. Background workers (liveness sweep)
	go func() {
		logger.Info("Starting supervisor...")
		sup.Run(ctx)
	}()

	// 6. HTTP server
	go func() {
		logger.Info("Starting chat relay", "address", config.Addr(), "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	// The execution blocks here until either a signal is received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Final Cleanup (Graceful Shutdown)
	// Active connections get a close frame before the listener goes away.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	registry.Each(func(m contract.Member) {
		m.Terminate("server shutting down")
	})
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown did not finish cleanly", "error", err)
	}
	sup.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func seedAccounts(directory *httpapi.Directory) error {
	if err := directory.Register("t-demo", "teacher@demo.local", "Demo Teacher", "teacher", "teacher123"); err != nil {
		return err
	}
	return directory.Register("s-demo", "student1", "Demo Student", "student", "student123")
}
