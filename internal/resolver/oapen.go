package resolver

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// resolveOAPEN handles OAPEN book landing pages. The repository serves
// book assets out of bitstream paths; anchors whose wording indicates a
// download or a PDF are preferred over bare bitstream path matches.
func resolveOAPEN(ctx context.Context, r *Resolver, pageURL string, hops int) (string, bool) {
	doc := r.fetchDocument(ctx, pageURL)
	if doc == nil {
		return "", false
	}

	var preferred, fallback string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !strings.Contains(href, "/bitstream") {
			return
		}
		abs := absolutize(pageURL, href)
		if abs == "" {
			return
		}

		text := strings.ToLower(strings.TrimSpace(s.Text()))
		lowerHref := strings.ToLower(href)
		wordingMatch := strings.Contains(text, "download") || strings.Contains(text, "pdf") ||
			strings.HasSuffix(lowerHref, ".pdf")

		if wordingMatch && preferred == "" {
			preferred = abs
		} else if fallback == "" {
			fallback = abs
		}
	})

	if preferred != "" {
		return preferred, true
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}
