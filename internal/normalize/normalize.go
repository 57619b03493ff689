// Package normalize provides field-level cleanup helpers shared by all
// source clients: markup stripping, year extraction from free-text dates,
// author-name cleanup and bounded truncation. Per-source structural mapping
// stays in each client; only the field cleanup is common.
package normalize

import (
	"html"
	"regexp"
	"strings"

	"github.com/openshelf/openaccess-service/internal/domain"
)

// Bounds applied to normalized fields so downstream payloads stay
// predictable regardless of how verbose a repository is.
const (
	MaxAuthors        = 10
	MaxSubjects       = 10
	MaxAbstractLength = 2000
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	// yearPattern matches a plausible four-digit publication year. The
	// first match wins; free-text date fields frequently carry day and
	// month numbers that must not be mistaken for years.
	yearPattern = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2}|21[0-9]{2})\b`)
)

// StripHTML removes markup tags, decodes entities and collapses whitespace.
// Abstracts arrive as raw HTML from several repositories.
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return CollapseWhitespace(s)
}

// CollapseWhitespace trims the string and folds internal whitespace runs
// (including the newlines arXiv inserts mid-title) into single spaces.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// ExtractYear pulls a four-digit year out of a free-text date string,
// preferring the first plausible match. Returns domain.UnknownYear when no
// year is found; the result is always a string, never a number.
func ExtractYear(s string) string {
	if m := yearPattern.FindString(s); m != "" {
		return m
	}
	return domain.UnknownYear
}

// Authors cleans a list of author names: trims whitespace, drops empties,
// and caps the list at MaxAuthors. An empty result falls back to the
// placeholder so the canonical invariant (authors never empty) holds.
func Authors(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = CollapseWhitespace(n)
		if n == "" {
			continue
		}
		out = append(out, n)
		if len(out) == MaxAuthors {
			break
		}
	}
	if len(out) == 0 {
		return []string{domain.PlaceholderAuthor}
	}
	return out
}

// Abstract strips markup from an abstract and truncates it to
// MaxAbstractLength runes, falling back to the placeholder when empty.
func Abstract(s string) string {
	s = StripHTML(s)
	if s == "" {
		return domain.PlaceholderAbstract
	}
	return Truncate(s, MaxAbstractLength)
}

// Truncate caps s at max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}

// Subjects trims, de-duplicates and caps a subject list at MaxSubjects.
func Subjects(subjects []string) []string {
	seen := make(map[string]struct{}, len(subjects))
	out := make([]string, 0, len(subjects))
	for _, s := range subjects {
		s = CollapseWhitespace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
		if len(out) == MaxSubjects {
			break
		}
	}
	return out
}
