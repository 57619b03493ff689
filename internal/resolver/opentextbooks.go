package resolver

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// resolveOpenTextbooks handles Open Textbook Library landing pages. The
// library aggregates textbooks hosted elsewhere: its pages carry a
// format-selection list whose PDF entry usually redirects to the hosting
// platform. When that platform is itself known (LibreTexts, OAPEN), its own
// strategy is applied at the next hop; otherwise the redirect target is
// accepted only if it looks like a direct PDF asset.
func resolveOpenTextbooks(ctx context.Context, r *Resolver, pageURL string, hops int) (string, bool) {
	doc := r.fetchDocument(ctx, pageURL)
	if doc == nil {
		return "", false
	}

	target := findPDFFormatLink(doc, pageURL)
	if target == "" {
		return "", false
	}

	final := r.finalURL(ctx, target)

	if resolved, _, ok := r.resolveWithDepth(ctx, final, hops+1); ok {
		return resolved, true
	}
	if looksLikePDF(final) {
		return final, true
	}
	return "", false
}

// findPDFFormatLink locates the format-selection link tagged as PDF.
// Tolerates absent tags and attributes at every step.
func findPDFFormatLink(doc *goquery.Document, pageURL string) string {
	var target string
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		if !isPDFFormatLink(s, href) {
			return true
		}
		if abs := absolutize(pageURL, href); abs != "" {
			target = abs
			return false
		}
		return true
	})
	return target
}

// isPDFFormatLink reports whether the anchor is tagged as the PDF format,
// either through a data-format attribute, its link text, or an explicit
// format query parameter.
func isPDFFormatLink(s *goquery.Selection, href string) bool {
	if format, ok := s.Attr("data-format"); ok && strings.EqualFold(strings.TrimSpace(format), "pdf") {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(s.Text()), "pdf") {
		return true
	}
	return strings.Contains(strings.ToLower(href), "format=pdf")
}

// looksLikePDF reports whether a URL plausibly points at a PDF asset.
func looksLikePDF(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.HasSuffix(lower, ".pdf") ||
		strings.Contains(lower, ".pdf?") ||
		strings.Contains(lower, "/pdf/")
}
