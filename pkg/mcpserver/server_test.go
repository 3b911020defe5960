package mcpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probeops/pagetap/pkg/capture"
	"github.com/probeops/pagetap/pkg/errmodel"
	"github.com/probeops/pagetap/pkg/session"
)

// fakePage implements session.PageAccessor without a browser.
type fakePage struct {
	info    capture.PageInfo
	infoErr error

	// selectors that fail enrichment (element "gone")
	failSelectors map[string]bool
	enrichCalls   int
}

func (f *fakePage) PageInfo(context.Context) (capture.PageInfo, error) {
	return f.info, f.infoErr
}

func (f *fakePage) EnrichClick(_ context.Context, rec capture.ClickRecord, parentDepth, childDepth int) (capture.ClickRecord, error) {
	f.enrichCalls++
	if f.failSelectors[rec.Selector] {
		return rec, errors.New("element not found: " + rec.Selector)
	}
	for i := 0; i < parentDepth; i++ {
		rec.Parents = append(rec.Parents, capture.ElementSummary{TagName: "div"})
	}
	for i := 0; i < childDepth; i++ {
		rec.Children = append(rec.Children, capture.ElementSummary{TagName: "span"})
	}
	return rec, nil
}

func newTestServer(page *fakePage) (*Server, *capture.Store) {
	store := capture.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.New(store, page, logger)
	return New(sess, "test"), store
}

func intp(n int) *int { return &n }

func TestGetLogsDefaultIsLastTen(t *testing.T) {
	srv, store := newTestServer(&fakePage{})
	for i := 0; i < 20; i++ {
		store.AppendLog(capture.LogRecord{Timestamp: int64(i), Kind: "log"})
	}

	_, out, err := srv.getLogs(context.Background(), nil, logsArgs{})
	require.NoError(t, err)
	require.Len(t, out.Logs, 10)
	assert.EqualValues(t, 10, out.Logs[0].Timestamp)
	assert.EqualValues(t, 19, out.Logs[9].Timestamp)
}

func TestGetLogsHeadAndTail(t *testing.T) {
	srv, store := newTestServer(&fakePage{})
	for i := 0; i < 20; i++ {
		store.AppendLog(capture.LogRecord{Timestamp: int64(i), Kind: "log"})
	}

	_, out, err := srv.getLogs(context.Background(), nil, logsArgs{Head: intp(5)})
	require.NoError(t, err)
	require.Len(t, out.Logs, 5)
	assert.EqualValues(t, 0, out.Logs[0].Timestamp)

	_, out, err = srv.getLogs(context.Background(), nil, logsArgs{Tail: intp(5)})
	require.NoError(t, err)
	require.Len(t, out.Logs, 5)
	assert.EqualValues(t, 15, out.Logs[0].Timestamp)

	// head wins when both are supplied
	_, out, err = srv.getLogs(context.Background(), nil, logsArgs{Head: intp(3), Tail: intp(5)})
	require.NoError(t, err)
	require.Len(t, out.Logs, 3)
	assert.EqualValues(t, 0, out.Logs[0].Timestamp)

	// explicit zero is empty, not everything
	_, out, err = srv.getLogs(context.Background(), nil, logsArgs{Tail: intp(0)})
	require.NoError(t, err)
	assert.Empty(t, out.Logs)
}

func TestGetLogsNegativeRejected(t *testing.T) {
	srv, _ := newTestServer(&fakePage{})
	_, _, err := srv.getLogs(context.Background(), nil, logsArgs{Head: intp(-1)})
	require.Error(t, err)
	assert.True(t, errmodel.IsCategory(err, errmodel.CategoryValidation))
}

func TestGetClicksDefaultReturnsAll(t *testing.T) {
	srv, store := newTestServer(&fakePage{})
	for i := 0; i < 7; i++ {
		store.PushClick(capture.ClickRecord{Timestamp: int64(i), Selector: "#b"})
	}

	_, out, err := srv.getClicks(context.Background(), nil, clicksArgs{})
	require.NoError(t, err)
	require.Len(t, out.Clicks, 7)
	assert.EqualValues(t, 6, out.Clicks[0].Timestamp, "most recent click first")
}

func TestGetClicksEnrichment(t *testing.T) {
	page := &fakePage{}
	srv, store := newTestServer(page)
	store.PushClick(capture.ClickRecord{Timestamp: 1, Selector: "#a"})
	store.PushClick(capture.ClickRecord{Timestamp: 2, Selector: "#b"})

	_, out, err := srv.getClicks(context.Background(), nil, clicksArgs{ParentDepth: intp(2), ChildDepth: intp(1)})
	require.NoError(t, err)
	require.Len(t, out.Clicks, 2)
	assert.Equal(t, 2, page.enrichCalls)
	for _, c := range out.Clicks {
		assert.Len(t, c.Parents, 2)
		assert.Len(t, c.Children, 1)
	}

	// depth 0 means no enrichment round-trips at all
	page.enrichCalls = 0
	_, out, err = srv.getClicks(context.Background(), nil, clicksArgs{})
	require.NoError(t, err)
	assert.Zero(t, page.enrichCalls)
	assert.Nil(t, out.Clicks[0].Parents)
}

func TestGetClicksEnrichmentFailureIsPerRecord(t *testing.T) {
	page := &fakePage{failSelectors: map[string]bool{"#gone": true}}
	srv, store := newTestServer(page)
	store.PushClick(capture.ClickRecord{Timestamp: 1, Selector: "#gone"})
	store.PushClick(capture.ClickRecord{Timestamp: 2, Selector: "#here"})

	_, out, err := srv.getClicks(context.Background(), nil, clicksArgs{ParentDepth: intp(1)})
	require.NoError(t, err, "one failed enrichment must not fail the batch")
	require.Len(t, out.Clicks, 2)

	assert.Equal(t, "#here", out.Clicks[0].Selector)
	assert.Len(t, out.Clicks[0].Parents, 1)

	// failed record keeps its base fields, just without DOM context
	assert.Equal(t, "#gone", out.Clicks[1].Selector)
	assert.EqualValues(t, 1, out.Clicks[1].Timestamp)
	assert.Nil(t, out.Clicks[1].Parents)
}

func TestGetClicksNegativeDepthRejected(t *testing.T) {
	srv, _ := newTestServer(&fakePage{})
	_, _, err := srv.getClicks(context.Background(), nil, clicksArgs{ParentDepth: intp(-1)})
	require.Error(t, err)
	assert.True(t, errmodel.IsCategory(err, errmodel.CategoryValidation))
}

func TestGetPageInfo(t *testing.T) {
	page := &fakePage{info: capture.PageInfo{URL: "https://example.com/", Title: "Example"}}
	srv, _ := newTestServer(page)

	_, info, err := srv.getPageInfo(context.Background(), nil, pageInfoArgs{})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", info.URL)
	assert.Equal(t, "Example", info.Title)

	page.infoErr = errors.New("target crashed")
	_, _, err = srv.getPageInfo(context.Background(), nil, pageInfoArgs{})
	require.Error(t, err)
	assert.True(t, errmodel.IsCategory(err, errmodel.CategoryBrowser))
}

func TestGetNavigationsHeadOnly(t *testing.T) {
	srv, store := newTestServer(&fakePage{})
	for _, url := range []string{"https://a.test/", "https://b.test/", "https://c.test/"} {
		store.PushNavigation(capture.NavigationRecord{URL: url})
	}

	_, out, err := srv.getNavigations(context.Background(), nil, navigationsArgs{Head: intp(2)})
	require.NoError(t, err)
	require.Len(t, out.Navigations, 2)
	assert.Equal(t, "https://c.test/", out.Navigations[0].URL)
	assert.Equal(t, "https://b.test/", out.Navigations[1].URL)

	// default returns everything the buffer holds
	_, out, err = srv.getNavigations(context.Background(), nil, navigationsArgs{})
	require.NoError(t, err)
	assert.Len(t, out.Navigations, 3)
}

func TestBuildRegistersTools(t *testing.T) {
	srv, _ := newTestServer(&fakePage{})
	require.NotNil(t, srv.Build())
}
