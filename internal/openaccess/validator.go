// Package openaccess decides whether a document is verifiably open access.
//
// There is no authoritative oracle for access rights, so the validator is a
// multi-signal heuristic classifier: a fixed sequence of stages, each either
// producing a conclusive verdict or passing to the next. The verdict always
// carries a reason string, retained even on acceptance, so operators can
// audit why something passed.
package openaccess

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openshelf/openaccess-service/internal/domain"
)

// DefaultReason is returned when no stage produced a conclusive signal.
const DefaultReason = "cannot verify open access status"

// Stage names surfaced in verdicts and metrics.
const (
	StageDOIPrefix = "doi_prefix"
	StageURLDomain = "url_domain"
	StageEduURL    = "educational_url"
	StageLicense   = "license"
	StageJournal   = "journal"
	StageHeadCheck = "head_check"
	StageDefault   = "default"
)

// Verdict is the outcome of validating one document. Accepted and Reason
// are always produced together.
type Verdict struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
	// Stage names the check that produced the verdict.
	Stage string `json:"stage"`
}

// Validator classifies documents as open access or not. It holds only
// immutable tables and is safe to share across concurrent searches without
// synchronization. Construct once with New and reuse.
type Validator struct {
	headCheck  bool
	headClient *http.Client
}

// Option configures a Validator.
type Option func(*Validator)

// WithHeadCheck enables the live URL probe stage. It is disabled by default
// because a network round trip per candidate materially slows aggregation;
// the probe only ever runs after every offline stage failed to conclude.
func WithHeadCheck(client *http.Client) Option {
	return func(v *Validator) {
		v.headCheck = true
		v.headClient = client
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	if v.headCheck && v.headClient == nil {
		v.headClient = &http.Client{Timeout: 10 * time.Second}
	}
	return v
}

// Validate runs the staged classification over a document's canonical
// fields. Stages are evaluated in order and short-circuit on the first
// conclusive signal; the default is rejection.
func (v *Validator) Validate(ctx context.Context, doc *domain.Document) Verdict {
	if verdict, ok := v.checkDOIPrefix(doc.DOI); ok {
		return verdict
	}

	host := hostOf(doc.FullTextURL)

	if verdict, ok := v.checkURLDomain(host); ok {
		return verdict
	}
	if verdict, ok := v.checkEducationalURL(doc.FullTextURL, host); ok {
		return verdict
	}
	if verdict, ok := v.checkLicense(doc.License, doc.Abstract); ok {
		return verdict
	}
	if verdict, ok := v.checkJournal(doc.Journal); ok {
		return verdict
	}
	if v.headCheck {
		if verdict, ok := v.checkLiveURL(ctx, doc.FullTextURL); ok {
			return verdict
		}
	}

	return Verdict{Accepted: false, Reason: DefaultReason, Stage: StageDefault}
}

// checkDOIPrefix classifies by DOI registrant prefix. Known paywalled
// registrants reject before the URL is even inspected.
func (v *Validator) checkDOIPrefix(doi string) (Verdict, bool) {
	doi = strings.TrimSpace(strings.ToLower(doi))
	if doi == "" {
		return Verdict{}, false
	}
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")

	for _, prefix := range paywallDOIPrefixes {
		if strings.HasPrefix(doi, prefix) {
			return Verdict{
				Accepted: false,
				Reason:   fmt.Sprintf("known paywalled publisher DOI prefix %s", prefix),
				Stage:    StageDOIPrefix,
			}, true
		}
	}
	for _, prefix := range openDOIPrefixes {
		if strings.HasPrefix(doi, prefix) {
			return Verdict{
				Accepted: true,
				Reason:   fmt.Sprintf("known open access publisher DOI prefix %s", prefix),
				Stage:    StageDOIPrefix,
			}, true
		}
	}
	return Verdict{}, false
}

// checkURLDomain classifies by the full-text URL host: denylisted paywall
// hosts reject, allowlisted open repositories accept.
func (v *Validator) checkURLDomain(host string) (Verdict, bool) {
	if host == "" {
		return Verdict{}, false
	}
	if domain := matchDomain(host, paywallDomains); domain != "" {
		return Verdict{
			Accepted: false,
			Reason:   "known paywall domain " + domain,
			Stage:    StageURLDomain,
		}, true
	}
	if domain := matchDomain(host, openAccessDomains); domain != "" {
		return Verdict{
			Accepted: true,
			Reason:   "known open access domain " + domain,
			Stage:    StageURLDomain,
		}, true
	}
	return Verdict{}, false
}

// checkEducationalURL provisionally accepts URLs that look like
// institutional repositories. The paywall denylist has already run at this
// point, so a denylisted host can no longer slip through here.
func (v *Validator) checkEducationalURL(rawURL, host string) (Verdict, bool) {
	if host == "" {
		return Verdict{}, false
	}
	lower := strings.ToLower(rawURL)
	for _, marker := range educationalURLMarkers {
		if strings.Contains(lower, marker) {
			return Verdict{
				Accepted: true,
				Reason:   "educational or repository URL pattern " + marker,
				Stage:    StageEduURL,
			}, true
		}
	}
	return Verdict{}, false
}

// checkLicense accepts on Creative Commons markers in the license metadata
// or, failing that, in the abstract text.
func (v *Validator) checkLicense(license, abstract string) (Verdict, bool) {
	for _, text := range []string{license, abstract} {
		if text == "" {
			continue
		}
		for _, pattern := range ccLicensePatterns {
			if pattern.MatchString(text) {
				return Verdict{
					Accepted: true,
					Reason:   "Creative Commons license detected",
					Stage:    StageLicense,
				}, true
			}
		}
	}
	return Verdict{}, false
}

// checkJournal accepts on known open-access journal or publisher name
// fragments.
func (v *Validator) checkJournal(journal string) (Verdict, bool) {
	if journal == "" {
		return Verdict{}, false
	}
	lower := strings.ToLower(journal)
	for _, fragment := range openAccessJournalFragments {
		if strings.Contains(lower, fragment) {
			return Verdict{
				Accepted: true,
				Reason:   "known open access journal: " + strings.TrimSpace(fragment),
				Stage:    StageJournal,
			}, true
		}
	}
	return Verdict{}, false
}

// checkLiveURL probes the URL with a HEAD request and rejects when the
// final redirect target lands on a paywall domain. Inconclusive on any
// network failure.
func (v *Validator) checkLiveURL(ctx context.Context, rawURL string) (Verdict, bool) {
	if rawURL == "" {
		return Verdict{}, false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return Verdict{}, false
	}
	resp, err := v.headClient.Do(req)
	if err != nil {
		return Verdict{}, false
	}
	defer resp.Body.Close()

	finalHost := ""
	if resp.Request != nil && resp.Request.URL != nil {
		finalHost = strings.ToLower(resp.Request.URL.Hostname())
	}
	if domain := matchDomain(finalHost, paywallDomains); domain != "" {
		return Verdict{
			Accepted: false,
			Reason:   "URL resolves to paywall domain " + domain,
			Stage:    StageHeadCheck,
		}, true
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return Verdict{
			Accepted: true,
			Reason:   "URL resolves without hitting a paywall domain",
			Stage:    StageHeadCheck,
		}, true
	}
	return Verdict{}, false
}

// hostOf extracts the lowercase hostname from a URL, or "".
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// matchDomain returns the table entry that host equals or is a subdomain
// of, or "".
func matchDomain(host string, table []string) string {
	for _, d := range table {
		if host == d || strings.HasSuffix(host, "."+d) {
			return d
		}
	}
	return ""
}
