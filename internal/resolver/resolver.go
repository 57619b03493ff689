// Package resolver upgrades landing-page URLs to direct document URLs.
//
// Institutional platforms rarely link a PDF from their metadata APIs; the
// asset has to be scraped off the landing page, and every platform hides it
// differently. Resolution is dispatched through an explicit table keyed by
// host pattern, with a hop counter bounding cross-platform following (a
// textbook aggregator's format link frequently redirects into another
// platform that needs its own strategy).
//
// Resolve never fails: any dead end returns the input URL unchanged, so the
// caller always keeps at least the landing page.
package resolver

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// maxHops bounds cross-platform following: one redirect hop per call.
const maxHops = 1

// maxBodySize caps how much landing-page HTML is read.
const maxBodySize = 5 << 20

// strategy attempts to extract a direct document URL from a landing page.
// It returns ("", false) on any dead end.
type strategy func(ctx context.Context, r *Resolver, pageURL string, hops int) (string, bool)

// dispatchEntry pairs a host matcher with its extraction strategy.
type dispatchEntry struct {
	name    string
	matches func(host string) bool
	run     strategy
}

// Resolver discovers direct document URLs behind landing pages.
// It is safe for concurrent use; strategies share nothing but the HTTP
// client and resolution of different documents can proceed in parallel.
type Resolver struct {
	client    *http.Client
	logger    zerolog.Logger
	userAgent string
	dispatch  []dispatchEntry
}

// Config holds resolver configuration.
type Config struct {
	// Timeout is the per-hop HTTP timeout. Default: 15 seconds.
	Timeout time.Duration
	// UserAgent is sent on every page fetch.
	UserAgent string
}

// New creates a Resolver.
func New(cfg Config, logger zerolog.Logger) *Resolver {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "OpenShelf-Aggregator/1.0 (mailto:ops@openshelf.dev)"
	}

	r := &Resolver{
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "resolver").Logger(),
	}
	r.userAgent = cfg.UserAgent
	r.dispatch = []dispatchEntry{
		{
			name:    "opentextbooks",
			matches: func(host string) bool { return strings.Contains(host, "open.umn.edu") },
			run:     resolveOpenTextbooks,
		},
		{
			name:    "libretexts",
			matches: func(host string) bool { return host == "libretexts.org" || strings.HasSuffix(host, ".libretexts.org") },
			run:     resolveLibreTexts,
		},
		{
			name:    "oapen",
			matches: func(host string) bool { return host == "oapen.org" || strings.HasSuffix(host, ".oapen.org") },
			run:     resolveOAPEN,
		},
	}
	return r
}

// Resolve attempts to discover a direct document URL behind landingURL.
// On any failure, including unknown platforms, it returns landingURL
// unchanged; it never returns an empty string and never errors.
func (r *Resolver) Resolve(ctx context.Context, landingURL string) string {
	resolved, name, ok := r.resolveWithDepth(ctx, landingURL, 0)
	if !ok {
		return landingURL
	}
	r.logger.Debug().
		Str("strategy", name).
		Str("landing_url", landingURL).
		Str("document_url", resolved).
		Msg("resolved direct document URL")
	return resolved
}

// StrategyFor returns the name of the strategy that would handle the URL,
// or "" for unknown platforms. Used for metrics labeling.
func (r *Resolver) StrategyFor(rawURL string) string {
	host := hostOf(rawURL)
	for _, entry := range r.dispatch {
		if entry.matches(host) {
			return entry.name
		}
	}
	return ""
}

// resolveWithDepth runs the dispatch table at the given hop depth.
func (r *Resolver) resolveWithDepth(ctx context.Context, pageURL string, hops int) (string, string, bool) {
	if hops > maxHops {
		return "", "", false
	}
	host := hostOf(pageURL)
	if host == "" {
		return "", "", false
	}
	for _, entry := range r.dispatch {
		if !entry.matches(host) {
			continue
		}
		if resolved, ok := entry.run(ctx, r, pageURL, hops); ok {
			return resolved, entry.name, true
		}
		return "", "", false
	}
	// Unknown platform: explicit no-op, not a failure.
	return "", "", false
}

// fetchDocument GETs a landing page and parses it. Returns nil on any
// failure; strategies treat that as a dead end.
func (r *Resolver) fetchDocument(ctx context.Context, pageURL string) *goquery.Document {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug().Err(err).Str("url", pageURL).Msg("landing page fetch failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil
	}
	return doc
}

// fetchBody GETs a page and returns the raw HTML. Returns "" on failure.
func (r *Resolver) fetchBody(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return ""
	}
	return string(body)
}

// exists probes a URL with a HEAD request.
func (r *Resolver) exists(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// finalURL follows redirects from rawURL and returns where it lands.
// Returns rawURL itself on failure.
func (r *Resolver) finalURL(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return rawURL
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return rawURL
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return rawURL
}

// absolutize resolves href against base. Returns "" when either is
// unparsable or the result is not absolute http(s).
func absolutize(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	abs := b.ResolveReference(h)
	if (abs.Scheme != "http" && abs.Scheme != "https") || abs.Host == "" {
		return ""
	}
	return abs.String()
}

// hostOf extracts the lowercase host (including any port) from a URL, or "".
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
