// Command necessity-judge serves canned medical necessity verdicts in the
// Gemini generateContent shape for local runs and end-to-end tests.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"opdclaims/internal/platform/httpserver"
)

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	mode := flag.String("mode", string(ModeVerdict), "verdict, error, slow or garbage")
	delay := flag.Duration("delay", 15*time.Second, "response delay in slow mode")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpserver.New(*addr, newServer(Mode(*mode), *delay, logger).routes())
	if err := httpserver.Run(ctx, srv, logger); err != nil {
		logger.Error("mock judge stopped", "error", err)
		os.Exit(1)
	}
}
