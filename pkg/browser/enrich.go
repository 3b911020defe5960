package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/probeops/pagetap/pkg/capture"
)

// enrichJS resolves a selector in the live document and summarizes up
// to parentDepth ancestors and childDepth levels of descendants. It
// throws when the element is no longer present, which the caller
// surfaces as a per-record enrichment error.
const enrichJS = `(sel, parentDepth, childDepth) => {
	const el = document.querySelector(sel);
	if (!el) throw new Error('element not found: ' + sel);

	const summarize = (node) => {
		const attributes = {};
		for (const attr of node.attributes) attributes[attr.name] = attr.value;
		return {
			tagName: node.tagName.toLowerCase(),
			attributes: attributes,
			textContent: (node.textContent || '').trim().slice(0, 200),
		};
	};

	const parents = [];
	let p = el.parentElement;
	for (let i = 0; i < parentDepth && p; i++) {
		parents.push(summarize(p));
		p = p.parentElement;
	}

	const children = [];
	const walk = (node, depth) => {
		if (depth <= 0) return;
		for (const child of node.children) {
			children.push(summarize(child));
			walk(child, depth - 1);
		}
	};
	walk(el, childDepth);

	return { parents: parents, children: children };
}`

type enrichResult struct {
	Parents  []capture.ElementSummary `json:"parents"`
	Children []capture.ElementSummary `json:"children"`
}

// EnrichClick re-resolves rec's selector and attaches ancestor and
// descendant summaries. The returned record is a copy; rec itself is
// never mutated. Errors mean the element left the document or the page
// round-trip failed, and callers are expected to keep the base record.
func (s *Session) EnrichClick(ctx context.Context, rec capture.ClickRecord, parentDepth, childDepth int) (capture.ClickRecord, error) {
	if rec.Selector == "" {
		return rec, fmt.Errorf("click record has no selector")
	}

	page := s.page.Context(ctx).Timeout(s.timeout)
	defer page.CancelTimeout()

	res, err := page.Eval(enrichJS, rec.Selector, parentDepth, childDepth)
	if err != nil {
		return rec, fmt.Errorf("enrichment eval failed for %q: %w", rec.Selector, err)
	}

	raw, err := json.Marshal(res.Value.Val())
	if err != nil {
		return rec, fmt.Errorf("failed to encode enrichment result: %w", err)
	}
	var out enrichResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return rec, fmt.Errorf("failed to decode enrichment result: %w", err)
	}

	rec.Parents = out.Parents
	rec.Children = out.Children
	return rec, nil
}
