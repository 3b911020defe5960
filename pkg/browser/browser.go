// Package browser drives the single automated Chrome session and feeds
// the telemetry store. It wraps Rod: launch flags, the session page,
// CDP event hooks and query-time DOM enrichment all live here; the
// store never sees anything browser-shaped.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/probeops/pagetap/pkg/capture"
)

// Config configures Chrome launch options.
type Config struct {
	Headless bool          // run in headless mode (default true)
	StartURL string        // initial navigation target, optional
	Timeout  time.Duration // per-operation timeout (default 30s)
	Logger   *slog.Logger
}

// DefaultConfig returns sensible defaults for an agent-driven session.
func DefaultConfig() Config {
	return Config{
		Headless: true,
		Timeout:  30 * time.Second,
	}
}

// Session owns the Chrome process, the single page and the event hooks
// that insert captured telemetry into the store.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	store   *capture.Store
	log     *slog.Logger
	timeout time.Duration
}

// Launch starts headless Chrome, opens the session page, installs the
// capture hooks and navigates to cfg.StartURL when set.
func Launch(ctx context.Context, store *capture.Store, cfg Config) (*Session, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu")

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}

	b := rod.New().ControlURL(u).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to Chrome: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to open session page: %w", err)
	}

	s := &Session{
		browser: b,
		page:    page,
		store:   store,
		log:     cfg.Logger,
		timeout: cfg.Timeout,
	}

	if err := s.installHooks(); err != nil {
		_ = b.Close()
		return nil, err
	}

	if cfg.StartURL != "" {
		if err := page.Timeout(cfg.Timeout).Navigate(cfg.StartURL); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to navigate to %s: %w", cfg.StartURL, err)
		}
		page.CancelTimeout()
	}

	return s, nil
}

// Page returns the session page for direct automation.
func (s *Session) Page() *rod.Page {
	return s.page
}

// PageInfo returns the current URL and title of the session page.
func (s *Session) PageInfo(ctx context.Context) (capture.PageInfo, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return capture.PageInfo{}, fmt.Errorf("failed to read page info: %w", err)
	}
	return capture.PageInfo{URL: info.URL, Title: info.Title}, nil
}

// Close shuts down Chrome. Always call it (via defer) to avoid orphaned
// browser processes.
func (s *Session) Close() error {
	if s.browser != nil {
		return s.browser.Close()
	}
	return nil
}
