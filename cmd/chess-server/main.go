// Package main implements the chess server: a RESTful game API with user
// accounts, optional SQLite persistence and a db maintenance CLI.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"luchess/cmd/chess-server/cli"
	"luchess/internal/server/http"
	"luchess/internal/server/processor"
	"luchess/internal/server/service"
	"luchess/internal/server/storage"
)

const shutdownTimeout = 5 * time.Second

// devSecret keeps tokens valid across dev restarts
var devSecret = []byte("dev-secret-minimum-32-characters-long")

type config struct {
	host        string
	port        int
	dev         bool
	storagePath string
	pidPath     string
	pidLock     bool
}

func (c config) addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// parseConfig reads server flags from args, without the program name
func parseConfig(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("chess-server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.host, "api-host", "localhost", "API server host")
	fs.IntVar(&cfg.port, "api-port", 8080, "API server port")
	fs.BoolVar(&cfg.dev, "dev", false, "Development mode (relaxed rate limits, debug logs, fixed JWT secret)")
	fs.StringVar(&cfg.storagePath, "storage-path", "", "SQLite database file; empty keeps games in memory only")
	fs.StringVar(&cfg.pidPath, "pid", "", "Write the process ID to this file")
	fs.BoolVar(&cfg.pidLock, "pid-lock", false, "Hold a lock on the PID file so only one instance runs (requires -pid)")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if cfg.pidLock && cfg.pidPath == "" {
		return config{}, errors.New("-pid-lock requires -pid")
	}
	if cfg.port < 1 || cfg.port > 65535 {
		return config{}, fmt.Errorf("-api-port %d out of range", cfg.port)
	}
	return cfg, nil
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// openStore returns nil when persistence is off
func openStore(cfg config) (*storage.Store, error) {
	if cfg.storagePath == "" {
		log.Printf("Persistent storage disabled (use -storage-path to enable)")
		return nil, nil
	}
	log.Printf("Opening storage at %s", cfg.storagePath)
	store, err := storage.NewStore(cfg.storagePath, cfg.dev)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := store.InitDB(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// jwtSecret is fixed in dev mode and random otherwise, so a restart signs
// everyone out
func jwtSecret(dev bool) ([]byte, error) {
	if dev {
		return devSecret, nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return secret, nil
}

// run serves until ctx ends, then shuts down the HTTP server before the
// service so parked long-polls are released and queued writes drain
func run(ctx context.Context, cfg config) error {
	if cfg.dev {
		// move rejections and replays are logged at debug level
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if cfg.pidPath != "" {
		pid, err := acquirePIDFile(cfg.pidPath, cfg.pidLock)
		if err != nil {
			return err
		}
		defer pid.Release()
		log.Printf("PID file %s (lock: %v)", cfg.pidPath, cfg.pidLock)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	secret, err := jwtSecret(cfg.dev)
	if err != nil {
		return err
	}

	// the service owns store from here and closes it on shutdown
	svc := service.New(store, secret)
	cleanupCtx, cancelCleanup := context.WithCancel(ctx)
	defer cancelCleanup()
	go svc.RunCleanupJob(cleanupCtx, service.CleanupJobInterval)

	app := http.NewFiberApp(processor.New(svc), svc, cfg.dev)

	listenErr := make(chan error, 1)
	go func() {
		logBanner(cfg)
		listenErr <- app.Listen(cfg.addr())
	}()

	select {
	case <-ctx.Done():
	case err := <-listenErr:
		svc.Shutdown(shutdownTimeout)
		return fmt.Errorf("listen on %s: %w", cfg.addr(), err)
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("HTTP server forced to stop: %v", err)
	}
	cancelCleanup()
	if err := svc.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Service shutdown error: %v", err)
	}
	log.Println("Server exited")
	return nil
}

func logBanner(cfg config) {
	base := "http://" + cfg.addr()
	rate := "10 requests/second per IP"
	if cfg.dev {
		rate = "20 requests/second per IP (dev mode)"
	}
	storageNote := "disabled, accounts unavailable"
	if cfg.storagePath != "" {
		storageNote = cfg.storagePath
	}

	log.Printf("Chess API listening on %s", base)
	log.Printf("Rate limit: %s", rate)
	log.Printf("Storage: %s", storageNote)
	log.Printf("Games: %s/api/v1/games", base)
	log.Printf("Auth: %s/api/v1/auth/[register|login|logout|me]", base)
	log.Printf("Health: %s/health", base)
}
