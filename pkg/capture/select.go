package capture

import "github.com/probeops/pagetap/pkg/errmodel"

// Options selects a contiguous sub-range of a sequence. Head and Tail
// are optional; nil means absent, which is distinct from zero. When
// both are present Head wins and Tail is ignored.
type Options struct {
	Head *int
	Tail *int
}

// Select returns the requested slice of seq in seq's existing order.
//
// Head present (including 0) returns the first Head elements; Tail
// present returns the last Tail elements, with Tail == 0 explicitly
// returning an empty slice rather than wrapping around. Counts larger
// than the sequence return the whole sequence. When neither field is
// set the whole sequence is returned; per-buffer defaults (logs keep
// only the last DefaultLogTail) are the caller's business.
//
// Negative counts are rejected with a validation error.
//
// Select never mutates seq and allocates nothing; callers that need an
// independent copy must pass one (the Store read methods already do).
func Select[T any](seq []T, opts Options) ([]T, error) {
	switch {
	case opts.Head != nil:
		h := *opts.Head
		if h < 0 {
			return nil, errmodel.Validation("negative_count", "head must be >= 0", map[string]any{"head": h})
		}
		if h > len(seq) {
			h = len(seq)
		}
		return seq[:h], nil
	case opts.Tail != nil:
		t := *opts.Tail
		if t < 0 {
			return nil, errmodel.Validation("negative_count", "tail must be >= 0", map[string]any{"tail": t})
		}
		// Explicit, so an empty request can never alias "everything".
		if t == 0 {
			return seq[:0], nil
		}
		if t > len(seq) {
			t = len(seq)
		}
		return seq[len(seq)-t:], nil
	default:
		return seq, nil
	}
}

// Head returns Options selecting the first n elements.
func Head(n int) Options { return Options{Head: &n} }

// Tail returns Options selecting the last n elements.
func Tail(n int) Options { return Options{Tail: &n} }
