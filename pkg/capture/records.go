// Package capture holds the in-memory telemetry captured from a live
// browser session: console logs, click events and navigation history.
// Each kind lives in its own capped sequence; eviction always removes
// the logically oldest records first.
package capture

// Buffer capacities and the default slice applied to log queries.
const (
	MaxLogs        = 50000
	MaxClicks      = 50
	MaxNavigations = 50

	DefaultLogTail = 10
)

// LogRecord is a single console message or uncaught page error.
// Timestamp is milliseconds since the Unix epoch.
type LogRecord struct {
	Timestamp int64  `json:"timestamp"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`
}

// ElementSummary describes one DOM element discovered during click
// enrichment (an ancestor or descendant of the clicked element).
type ElementSummary struct {
	TagName     string            `json:"tagName"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	TextContent string            `json:"textContent,omitempty"`
}

// ClickRecord is one user (or script) click captured in-page.
// TextContent is truncated to 200 characters and InputValue to 500 by
// the capture script before the record reaches the store.
// Parents and Children are filled only at query time by best-effort
// enrichment; they are never stored.
type ClickRecord struct {
	Timestamp   int64             `json:"timestamp"`
	Selector    string            `json:"selector"`
	TagName     string            `json:"tagName"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	TextContent string            `json:"textContent,omitempty"`
	InputValue  string            `json:"inputValue,omitempty"`
	Parents     []ElementSummary  `json:"parents,omitempty"`
	Children    []ElementSummary  `json:"children,omitempty"`
}

// NavigationRecord is one main-frame navigation.
type NavigationRecord struct {
	Timestamp int64  `json:"timestamp"`
	URL       string `json:"url"`
	Title     string `json:"title"`
}

// PageInfo is the current location of the session page. It is a
// passthrough from the live browser, not part of any capped sequence.
type PageInfo struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}
