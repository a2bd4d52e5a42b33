package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"angles/internal/server"
	"angles/pkg/config"
	"angles/pkg/loader"
	"angles/pkg/logger"
)

// HandleServe runs the HTTP service until SIGINT or SIGTERM.
func HandleServe(args []string) {
	cfg, ok := loadConfig(os.Stderr)
	if !ok {
		os.Exit(1)
	}
	logger.Setup(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if code := runServe(ctx, cfg, args, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func runServe(ctx context.Context, cfg config.Config, args []string, stderr io.Writer) int {
	flags, err := parseFlags(args, nil, []string{"port"})
	if err != nil {
		fmt.Fprintf(stderr, "%v\nUsage: angles serve [--port <port>]\n", err)
		return 2
	}
	if port := flags.values["port"]; port != "" {
		cfg.Port = port
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		return 1
	}
	defer a.Close()

	cache := loader.NewCache(a.loader, a.transpiler, cfg.Cache)
	srv := server.New(cfg, a.transpiler, cache, a.db)
	srv.Store = a.store

	if err := srv.Run(ctx); err != nil {
		slog.Error("server stopped", "error", err)
		return 1
	}
	return 0
}
