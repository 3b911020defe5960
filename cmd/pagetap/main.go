// Command pagetap launches one headless Chrome session, captures its
// console logs, clicks and navigations into capped in-memory buffers,
// and serves them to an MCP client over stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/probeops/pagetap/pkg/browser"
	"github.com/probeops/pagetap/pkg/capture"
	"github.com/probeops/pagetap/pkg/debugserver"
	"github.com/probeops/pagetap/pkg/logging"
	"github.com/probeops/pagetap/pkg/mcpserver"
	"github.com/probeops/pagetap/pkg/metrics"
	"github.com/probeops/pagetap/pkg/otel"
	"github.com/probeops/pagetap/pkg/session"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	var (
		showVersion bool
		startURL    string
		debugAddr   string
		headless    bool
		env         string
		traceOut    bool
	)

	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.StringVar(&startURL, "url", getEnv("PAGETAP_URL", ""), "initial URL to open")
	flag.StringVar(&debugAddr, "debug-addr", getEnv("PAGETAP_DEBUG_ADDR", ""), "debug http listen address (empty disables)")
	flag.BoolVar(&headless, "headless", getEnv("PAGETAP_HEADLESS", "true") != "false", "run Chrome headless")
	flag.StringVar(&env, "env", getEnv("PAGETAP_ENV", "dev"), "environment (dev|prod), controls log format")
	flag.BoolVar(&traceOut, "trace", getEnv("PAGETAP_TRACE", "") == "true", "export trace spans to stderr")
	flag.Parse()

	if showVersion {
		fmt.Printf("pagetap %s (commit=%s, date=%s)\n", version, commit, date)
		return
	}

	// Stdout carries the MCP stream; everything human-readable goes to
	// stderr.
	logger := logging.NewLogger(env, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelCfg := otel.Config{ServiceName: "pagetap", ServiceVersion: version}
	if traceOut {
		// Stdout carries MCP, so the span exporter shares stderr with
		// the logger.
		otelCfg.TraceWriter = os.Stderr
	}
	shutdownOtel, err := otel.Init(ctx, otelCfg)
	if err != nil {
		logger.Error("otel init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOtel(sctx)
	}()

	metrics.Init()
	store := capture.NewStore()

	cfg := browser.DefaultConfig()
	cfg.Headless = headless
	cfg.StartURL = startURL
	cfg.Logger = logger

	b, err := browser.Launch(ctx, store, cfg)
	if err != nil {
		logger.Error("browser launch failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("browser close failed", "error", err)
		}
	}()

	sess := session.New(store, b, logger)
	logger.Info("session started", "session_id", sess.ID, "url", startURL, "headless", headless)

	if debugAddr != "" {
		dbg := debugserver.New(sess, version)
		bound, err := dbg.Start(debugAddr)
		if err != nil {
			logger.Error("debug server start failed", "addr", debugAddr, "error", err)
			os.Exit(1)
		}
		logger.Info("debug server listening", "addr", bound)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = dbg.Shutdown(sctx)
		}()
	}

	if err := mcpserver.New(sess, version).Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("session ended", "session_id", sess.ID)
}

func getEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
