package preview

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"upload-ai/internal/domain"
)

// TestManagerServesCurrentHandle verifies the live token returns the video bytes.
func TestManagerServesCurrentHandle(t *testing.T) {
	m := NewManager()
	h := m.SetMedia(domain.SelectedMedia{Name: "clip.mp4", MIMEType: "video/mp4", Size: 5, Data: []byte("video")})

	if !strings.HasPrefix(h.URL, PathPrefix) || h.Token == "" {
		t.Fatalf("unexpected handle: %+v", h)
	}

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, h.URL, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "video" {
		t.Fatalf("body = %q", body)
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Fatalf("content type = %q", got)
	}
}

// TestManagerRevokesPreviousHandle checks a new selection invalidates the old token.
func TestManagerRevokesPreviousHandle(t *testing.T) {
	m := NewManager()
	first := m.SetMedia(domain.SelectedMedia{Name: "a.mp4", Data: []byte("a")})
	second := m.SetMedia(domain.SelectedMedia{Name: "b.mp4", Data: []byte("b")})

	if first.Token == second.Token {
		t.Fatal("tokens should differ between selections")
	}

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, first.URL, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("revoked handle status = %d, want 404", rec.Code)
	}

	current, ok := m.Current()
	if !ok || current.Token != second.Token {
		t.Fatalf("current = %+v, want second handle", current)
	}
}

// TestManagerTeardown checks teardown revokes unconditionally.
func TestManagerTeardown(t *testing.T) {
	m := NewManager()
	m.Teardown()

	h := m.SetMedia(domain.SelectedMedia{Name: "a.mp4", Data: []byte("a")})
	m.Teardown()

	if _, ok := m.Current(); ok {
		t.Fatal("expected no handle after teardown")
	}
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, h.URL, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// TestManagerRangeRequest checks partial content for video scrubbing.
func TestManagerRangeRequest(t *testing.T) {
	m := NewManager()
	h := m.SetMedia(domain.SelectedMedia{Name: "clip.mp4", MIMEType: "video/mp4", Data: []byte("0123456789")})

	req := httptest.NewRequest(http.MethodGet, h.URL, nil)
	req.Header.Set("Range", "bytes=2-4")
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if rec.Body.String() != "234" {
		t.Fatalf("body = %q, want 234", rec.Body.String())
	}
}
