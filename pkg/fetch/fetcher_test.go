package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cantinabot/pkg/config"
	"cantinabot/pkg/logger"
	"cantinabot/pkg/menu"
)

var testDay = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: logger.LevelError})
	if err != nil {
		t.Fatalf("creating logger: %v", err)
	}
	return log
}

func newFetcher(t *testing.T, baseURL string) *Fetcher {
	t.Helper()
	return New(testLogger(t), config.FetchConfig{
		BaseURL:        baseURL,
		TimeoutSeconds: 5,
		MaxBodyMB:      1,
	})
}

func TestFetch_FirstVariant(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer srv.Close()

	data, err := newFetcher(t, srv.URL).Fetch(context.Background(), menu.Default(), testDay)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("unexpected body %q", data)
	}
	if len(calls) != 1 {
		t.Errorf("expected 1 request, got %d", len(calls))
	}
	if want := "/2024/01/Meniu-site-GAU-08.01.2024.pdf"; calls[0] != want {
		t.Errorf("expected %s, got %s", want, calls[0])
	}
}

func TestFetch_FallsBackToLegacyVariant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "Meniu-site") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 legacy"))
	}))
	defer srv.Close()

	data, err := newFetcher(t, srv.URL).Fetch(context.Background(), menu.Default(), testDay)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(string(data), "legacy") {
		t.Errorf("expected legacy variant body, got %q", data)
	}
}

func TestFetch_AllVariantsMissing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newFetcher(t, srv.URL).Fetch(context.Background(), menu.Default(), testDay)
	if err == nil {
		t.Fatal("expected error")
	}
	var ferr *Error
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if ferr.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", ferr.Status)
	}
}

func TestFetch_RejectsNonPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not found page served with 200</html>"))
	}))
	defer srv.Close()

	_, err := newFetcher(t, srv.URL).Fetch(context.Background(), menu.Default(), testDay)
	if err == nil {
		t.Fatal("expected error for non-PDF body")
	}
	if !strings.Contains(err.Error(), "not a PDF") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFetch_AcceptsMislabeledPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("%PDF-1.7 mislabeled"))
	}))
	defer srv.Close()

	if _, err := newFetcher(t, srv.URL).Fetch(context.Background(), menu.Default(), testDay); err != nil {
		t.Fatalf("expected magic-prefix body accepted, got %v", err)
	}
}

func TestFetch_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := newFetcher(t, srv.URL).Fetch(ctx, menu.Default(), testDay); err == nil {
		t.Fatal("expected error after context timeout")
	}
}
