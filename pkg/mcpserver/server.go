// Package mcpserver exposes the captured telemetry to an MCP client
// over stdio: get_logs, get_clicks, get_page_info and get_navigations.
// Handlers are read-only against store snapshots; the only side effects
// are metrics, spans and best-effort DOM enrichment round-trips.
package mcpserver

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/probeops/pagetap/pkg/capture"
	"github.com/probeops/pagetap/pkg/errmodel"
	"github.com/probeops/pagetap/pkg/metrics"
	"github.com/probeops/pagetap/pkg/session"
)

// Server wraps an MCP server bound to one browser session.
type Server struct {
	sess    *session.State
	version string
	tracer  trace.Tracer
}

// New creates the MCP server for the given session.
func New(sess *session.State, version string) *Server {
	return &Server{
		sess:    sess,
		version: version,
		tracer:  otel.Tracer("pagetap/mcpserver"),
	}
}

// Build registers the four telemetry tools on a fresh SDK server.
func (s *Server) Build() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "pagetap", Version: s.version}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_logs",
		Description: "Console messages and uncaught page errors, oldest first. Defaults to the last 10.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"head": countSchema("return only the first N records"),
			"tail": countSchema("return only the last N records (ignored when head is set)"),
		}),
	}, s.getLogs)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_clicks",
		Description: "Captured click events, most recent first. Defaults to all buffered clicks. Positive depths attach live DOM context per record, best effort.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"head":         countSchema("return only the first N records"),
			"tail":         countSchema("return only the last N records (ignored when head is set)"),
			"parent_depth": countSchema("summarize up to N ancestors of each clicked element"),
			"child_depth":  countSchema("summarize descendants up to N levels below each clicked element"),
		}),
	}, s.getClicks)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_page_info",
		Description: "Current URL and title of the session page.",
		InputSchema: objectSchema(nil),
	}, s.getPageInfo)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_navigations",
		Description: "Main-frame navigation history, most recent first. Defaults to all buffered navigations.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"head": countSchema("return only the first N records"),
		}),
	}, s.getNavigations)

	return srv
}

// Run serves MCP over stdio until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.Build().Run(ctx, &mcp.StdioTransport{})
}

type logsArgs struct {
	Head *int `json:"head,omitempty"`
	Tail *int `json:"tail,omitempty"`
}

type logsResult struct {
	Logs []capture.LogRecord `json:"logs"`
}

func (s *Server) getLogs(ctx context.Context, _ *mcp.CallToolRequest, args logsArgs) (*mcp.CallToolResult, logsResult, error) {
	_, span := s.tracer.Start(ctx, "tool.get_logs")
	defer span.End()
	metrics.IncToolCall("get_logs")

	opts := capture.Options{Head: args.Head, Tail: args.Tail}
	if opts.Head == nil && opts.Tail == nil {
		opts = capture.Tail(capture.DefaultLogTail)
	}
	logs, err := capture.Select(s.sess.Store.Logs(), opts)
	if err != nil {
		return nil, logsResult{}, err
	}
	span.SetAttributes(attribute.Int("pagetap.records", len(logs)))
	return nil, logsResult{Logs: logs}, nil
}

type clicksArgs struct {
	Head        *int `json:"head,omitempty"`
	Tail        *int `json:"tail,omitempty"`
	ParentDepth *int `json:"parent_depth,omitempty"`
	ChildDepth  *int `json:"child_depth,omitempty"`
}

type clicksResult struct {
	Clicks []capture.ClickRecord `json:"clicks"`
}

func (s *Server) getClicks(ctx context.Context, _ *mcp.CallToolRequest, args clicksArgs) (*mcp.CallToolResult, clicksResult, error) {
	ctx, span := s.tracer.Start(ctx, "tool.get_clicks")
	defer span.End()
	metrics.IncToolCall("get_clicks")

	parentDepth := intArg(args.ParentDepth)
	childDepth := intArg(args.ChildDepth)
	if parentDepth < 0 || childDepth < 0 {
		return nil, clicksResult{}, errmodel.Validation("negative_depth", "parent_depth and child_depth must be >= 0",
			map[string]any{"parent_depth": parentDepth, "child_depth": childDepth})
	}

	clicks, err := capture.Select(s.sess.Store.Clicks(), capture.Options{Head: args.Head, Tail: args.Tail})
	if err != nil {
		return nil, clicksResult{}, err
	}

	// Enrichment suspends on page round-trips while capture continues;
	// the snapshot above keeps this request describing a fixed set of
	// records. A failure drops only that record's DOM context.
	if parentDepth > 0 || childDepth > 0 {
		for i := range clicks {
			enriched, err := s.sess.Page.EnrichClick(ctx, clicks[i], parentDepth, childDepth)
			if err != nil {
				metrics.IncEnrichmentFailure()
				s.sess.Logger.Debug("click enrichment failed", "selector", clicks[i].Selector, "error", err)
				continue
			}
			clicks[i] = enriched
		}
	}

	span.SetAttributes(attribute.Int("pagetap.records", len(clicks)))
	return nil, clicksResult{Clicks: clicks}, nil
}

type pageInfoArgs struct{}

func (s *Server) getPageInfo(ctx context.Context, _ *mcp.CallToolRequest, _ pageInfoArgs) (*mcp.CallToolResult, capture.PageInfo, error) {
	ctx, span := s.tracer.Start(ctx, "tool.get_page_info")
	defer span.End()
	metrics.IncToolCall("get_page_info")

	info, err := s.sess.Page.PageInfo(ctx)
	if err != nil {
		return nil, capture.PageInfo{}, errmodel.Browser("page_info_failed", err.Error(), nil)
	}
	return nil, info, nil
}

type navigationsArgs struct {
	Head *int `json:"head,omitempty"`
}

type navigationsResult struct {
	Navigations []capture.NavigationRecord `json:"navigations"`
}

func (s *Server) getNavigations(ctx context.Context, _ *mcp.CallToolRequest, args navigationsArgs) (*mcp.CallToolResult, navigationsResult, error) {
	_, span := s.tracer.Start(ctx, "tool.get_navigations")
	defer span.End()
	metrics.IncToolCall("get_navigations")

	navs, err := capture.Select(s.sess.Store.Navigations(), capture.Options{Head: args.Head})
	if err != nil {
		return nil, navigationsResult{}, err
	}
	span.SetAttributes(attribute.Int("pagetap.records", len(navs)))
	return nil, navigationsResult{Navigations: navs}, nil
}

func intArg(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func countSchema(desc string) *jsonschema.Schema {
	min := 0.0
	return &jsonschema.Schema{Type: "integer", Minimum: &min, Description: desc}
}

func objectSchema(props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props}
}
