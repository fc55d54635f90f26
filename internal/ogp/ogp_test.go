package ogp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchImageFindsOGTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="https://example.com/banner.png"></head></html>`))
	}))
	defer srv.Close()

	got := FetchImage(context.Background(), srv.URL)
	if got != "https://example.com/banner.png" {
		t.Errorf("FetchImage() = %q, want banner.png URL", got)
	}
}

func TestFetchImageMissingTagReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>no image here</title></head></html>`))
	}))
	defer srv.Close()

	got := FetchImage(context.Background(), srv.URL)
	if got != "" {
		t.Errorf("FetchImage() = %q, want empty string", got)
	}
}

func TestFetchImageNon200ReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	got := FetchImage(context.Background(), srv.URL)
	if got != "" {
		t.Errorf("FetchImage() = %q, want empty string on 404", got)
	}
}

func TestFetchImageUnreachableHostReturnsEmpty(t *testing.T) {
	got := FetchImage(context.Background(), "http://127.0.0.1:0/unreachable")
	if got != "" {
		t.Errorf("FetchImage() = %q, want empty string for unreachable host", got)
	}
}
