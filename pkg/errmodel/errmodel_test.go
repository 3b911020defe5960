package errmodel

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewAndFrom(t *testing.T) {
	e := Validation("negative_count", "head must be >= 0", map[string]any{"head": -3})
	if e.Category != CategoryValidation || e.Code != "negative_count" {
		t.Fatalf("unexpected: %#v", e)
	}
	if got := From(e); got != e {
		t.Fatalf("From should return same error instance")
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	e := From(errors.New("chrome went away"))
	if e.Category != CategorySystem || e.Code != "internal" {
		t.Fatalf("unexpected: %#v", e)
	}
	if From(nil) != nil {
		t.Fatal("From(nil) should be nil")
	}
}

func TestIsCategory(t *testing.T) {
	err := Browser("page_info_failed", "target crashed", nil)
	if !IsCategory(err, CategoryBrowser) {
		t.Fatal("expected browser category")
	}
	if IsCategory(err, CategoryValidation) {
		t.Fatal("unexpected validation category")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("negative_count", "", nil), 400},
		{Validation("not_found", "", nil), 404},
		{Browser("page_info_failed", "", nil), 502},
		{System("internal", "", nil), 500},
		{nil, 500},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v)=%d want %d", tc.err, got, tc.want)
		}
	}
}

func TestWriteHTTP_StatusAndEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	WriteHTTP(rr, req, Validation("negative_count", "oops", nil))
	if rr.Code != 400 {
		t.Fatalf("status=%d want 400", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "\"category\":\"validation\"") {
		t.Fatalf("body missing category: %s", body)
	}
	if !strings.Contains(body, "\"code\":\"negative_count\"") {
		t.Fatalf("body missing code: %s", body)
	}
}

func TestTruncateContext(t *testing.T) {
	long := strings.Repeat("x", 1000)
	e := Validation("negative_count", "msg", map[string]any{"selector": long})
	got, ok := e.Context["selector"].(string)
	if !ok || len(got) > 256 {
		t.Fatalf("context not truncated: %d", len(got))
	}
}
