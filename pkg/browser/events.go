package browser

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/probeops/pagetap/pkg/capture"
)

// clickBinding is the CDP binding the in-page capture script calls with
// one serialized click record per click.
const clickBinding = "pagetapEmitClick"

// clickCaptureJS runs on every new document. It installs a
// capture-phase click listener that builds a compact record (selector,
// tag, attributes, truncated text and input value) and hands it to the
// CDP binding. Selector synthesis is deliberately simple: nearest id,
// otherwise a short tag/nth-of-type path.
const clickCaptureJS = `(() => {
	if (window.__pagetapInstalled) return;
	window.__pagetapInstalled = true;

	const cssPath = (el) => {
		const parts = [];
		let node = el;
		while (node && node.nodeType === Node.ELEMENT_NODE && parts.length < 6) {
			if (node.id) {
				parts.unshift('#' + CSS.escape(node.id));
				break;
			}
			let part = node.tagName.toLowerCase();
			const parent = node.parentElement;
			if (parent) {
				const siblings = Array.from(parent.children).filter(c => c.tagName === node.tagName);
				if (siblings.length > 1) {
					part += ':nth-of-type(' + (siblings.indexOf(node) + 1) + ')';
				}
			}
			parts.unshift(part);
			node = parent;
		}
		return parts.join(' > ');
	};

	document.addEventListener('click', (ev) => {
		const el = ev.target;
		if (!(el instanceof Element)) return;
		const attributes = {};
		for (const attr of el.attributes) attributes[attr.name] = attr.value;
		const rec = {
			timestamp: Date.now(),
			selector: cssPath(el),
			tagName: el.tagName.toLowerCase(),
			attributes: attributes,
			textContent: (el.textContent || '').trim().slice(0, 200),
		};
		if (typeof el.value === 'string') rec.inputValue = el.value.slice(0, 500);
		if (typeof window.` + clickBinding + ` === 'function') {
			window.` + clickBinding + `(JSON.stringify(rec));
		}
	}, true);
})();`

// installHooks wires the CDP event stream into the store. All four
// event kinds are handled on one goroutine, which preserves emission
// order within each kind.
func (s *Session) installHooks() error {
	if _, err := s.page.EvalOnNewDocument(clickCaptureJS); err != nil {
		return fmt.Errorf("failed to install click capture script: %w", err)
	}
	if err := (proto.RuntimeAddBinding{Name: clickBinding}).Call(s.page); err != nil {
		return fmt.Errorf("failed to add click binding: %w", err)
	}

	go s.page.EachEvent(
		func(e *proto.RuntimeConsoleAPICalled) { s.onConsole(e) },
		func(e *proto.RuntimeExceptionThrown) { s.onException(e) },
		func(e *proto.PageFrameNavigated) { s.onNavigated(e) },
		func(e *proto.RuntimeBindingCalled) { s.onBinding(e) },
	)()

	return nil
}

func (s *Session) onConsole(e *proto.RuntimeConsoleAPICalled) {
	s.store.AppendLog(capture.LogRecord{
		Timestamp: time.Now().UnixMilli(),
		Kind:      string(e.Type),
		Text:      formatConsoleArgs(e.Args),
	})
}

func (s *Session) onException(e *proto.RuntimeExceptionThrown) {
	text := ""
	if e.ExceptionDetails != nil {
		text = e.ExceptionDetails.Text
		if exc := e.ExceptionDetails.Exception; exc != nil && exc.Description != "" {
			if text != "" {
				text += " "
			}
			text += exc.Description
		}
	}
	s.store.AppendLog(capture.LogRecord{
		Timestamp: time.Now().UnixMilli(),
		Kind:      "error",
		Text:      text,
	})
}

func (s *Session) onNavigated(e *proto.PageFrameNavigated) {
	if e.Frame == nil || e.Frame.ParentID != "" {
		return // sub-frame navigation
	}
	title := ""
	if info, err := s.page.Info(); err == nil {
		title = info.Title
	}
	s.store.PushNavigation(capture.NavigationRecord{
		Timestamp: time.Now().UnixMilli(),
		URL:       e.Frame.URL,
		Title:     title,
	})
}

func (s *Session) onBinding(e *proto.RuntimeBindingCalled) {
	if e.Name != clickBinding {
		return
	}
	rec, err := decodeClickPayload(e.Payload)
	if err != nil {
		s.log.Debug("dropping malformed click payload", "error", err)
		return
	}
	s.store.PushClick(rec)
}

// Caps re-applied on every decoded click payload. The capture script
// enforces the same text limits, but the binding is callable by any
// page script, so nothing the page sends is trusted to be bounded.
const (
	maxClickText       = 200
	maxClickInputValue = 500
	maxClickSelector   = 500
	maxClickTagName    = 50
	maxClickAttrs      = 32
	maxClickAttrKey    = 100
	maxClickAttrValue  = 200
)

// decodeClickPayload parses the JSON emitted by the capture script and
// caps every field so a hostile page cannot bloat the click buffer.
func decodeClickPayload(payload string) (capture.ClickRecord, error) {
	var rec capture.ClickRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return capture.ClickRecord{}, fmt.Errorf("failed to decode click payload: %w", err)
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	rec.Selector = truncateRunes(rec.Selector, maxClickSelector)
	rec.TagName = truncateRunes(rec.TagName, maxClickTagName)
	rec.TextContent = truncateRunes(rec.TextContent, maxClickText)
	rec.InputValue = truncateRunes(rec.InputValue, maxClickInputValue)
	if len(rec.Attributes) > 0 {
		attrs := make(map[string]string, len(rec.Attributes))
		for k, v := range rec.Attributes {
			if len(attrs) == maxClickAttrs {
				break
			}
			attrs[truncateRunes(k, maxClickAttrKey)] = truncateRunes(v, maxClickAttrValue)
		}
		rec.Attributes = attrs
	}
	rec.Parents = nil
	rec.Children = nil
	return rec, nil
}

// formatConsoleArgs renders remote objects the way devtools would:
// primitive values verbatim, everything else by its description.
func formatConsoleArgs(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		switch {
		case arg.Value.Val() != nil:
			parts = append(parts, fmt.Sprintf("%v", arg.Value.Val()))
		case arg.Description != "":
			parts = append(parts, arg.Description)
		default:
			parts = append(parts, string(arg.Type))
		}
	}
	return strings.Join(parts, " ")
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
