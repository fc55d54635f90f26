// Package ogp best-effort scrapes an article's Open Graph image. It is an
// opaque collaborator: nothing in internal/engine calls it, and a failure
// here never surfaces as a ranking error — absence yields an empty string.
package ogp

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	fetchTimeout = 5 * time.Second
	scanLimit    = 10 * 1024
)

// FetchImage returns the og:image URL for pageURL, or "" if the page has
// none or the fetch fails for any reason (timeout, non-200, malformed HTML).
func FetchImage(ctx context.Context, pageURL string) string {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	limited := io.LimitReader(resp.Body, scanLimit)
	doc, err := goquery.NewDocumentFromReader(limited)
	if err != nil {
		return ""
	}

	image, _ := doc.Find(`meta[property='og:image']`).Attr("content")
	return strings.TrimSpace(image)
}
