// Package session ties one browser session's telemetry store and page
// handle into a single process-scoped value. Everything that used to be
// tempting as package-level mutable state lives here instead and is
// injected into the MCP handlers and the debug server.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/probeops/pagetap/pkg/capture"
)

// PageAccessor is the live-page surface the query layer needs: the
// current location and best-effort DOM enrichment of a click record.
// The browser package provides the real implementation.
type PageAccessor interface {
	// PageInfo returns the page's current URL and title.
	PageInfo(ctx context.Context) (capture.PageInfo, error)

	// EnrichClick resolves rec's selector in the live document and
	// returns a copy of rec with Parents/Children summaries attached up
	// to the given depths. An error means the element is gone or the
	// page round-trip failed; the record itself is still usable.
	EnrichClick(ctx context.Context, rec capture.ClickRecord, parentDepth, childDepth int) (capture.ClickRecord, error)
}

// State is the process-lifetime session value. It is constructed once
// at startup and shared by every event callback and request handler.
type State struct {
	ID        string
	StartedAt time.Time
	Store     *capture.Store
	Page      PageAccessor
	Logger    *slog.Logger
}

// New builds a State with a fresh session ID.
func New(store *capture.Store, page PageAccessor, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Store:     store,
		Page:      page,
		Logger:    logger,
	}
}
