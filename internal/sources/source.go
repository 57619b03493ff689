// Package sources provides the client contract and shared plumbing for
// external scholarly repositories.
//
// Each repository (OpenAlex, arXiv, Open Library, ...) implements the Source
// interface in its own subpackage, mapping that repository's raw response
// shape onto the canonical domain.Document. The aggregation layer fans a
// query out across all registered sources; a single source's failure never
// aborts the overall search.
package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/openshelf/openaccess-service/internal/domain"
)

// MaxYear is the upper bound accepted for year filters. Repositories list
// forthcoming titles, so one year past the current one is allowed.
func MaxYear() int {
	return time.Now().Year() + 1
}

// minYear is the lower bound accepted for year filters.
const minYear = 1000

// SearchParams defines the parameters for searching scholarly documents.
// All fields except Query are optional.
type SearchParams struct {
	// Query is the search query string (required).
	Query string

	// YearStart filters documents published in or after this year.
	// Zero means no lower bound.
	YearStart int

	// YearEnd filters documents published in or before this year.
	// Zero means no upper bound.
	YearEnd int

	// Discipline is an optional subject filter drawn from the controlled
	// vocabulary in this package. Sources expand it into their own query
	// syntax; sources with no mapping for the value ignore it.
	Discipline string

	// EducationLevel is an optional audience filter drawn from the
	// controlled vocabulary in this package. Only book/textbook sources
	// act on it.
	EducationLevel string

	// Limit caps the number of documents returned. Sources clamp it to
	// their own documented maximum page size. Zero uses the source default.
	Limit int

	// Offset specifies the starting position for paginated results.
	Offset int
}

// Validate checks the parameters before any network call is made. It is the
// only place where an error may escape the aggregation core to its caller.
func (p SearchParams) Validate() error {
	if p.Query == "" {
		return domain.NewValidationError("query", "must not be empty")
	}
	maxYear := MaxYear()
	if p.YearStart != 0 && (p.YearStart < minYear || p.YearStart > maxYear) {
		return domain.NewValidationError("year_start", fmt.Sprintf("must be between %d and %d", minYear, maxYear))
	}
	if p.YearEnd != 0 && (p.YearEnd < minYear || p.YearEnd > maxYear) {
		return domain.NewValidationError("year_end", fmt.Sprintf("must be between %d and %d", minYear, maxYear))
	}
	if p.YearStart != 0 && p.YearEnd != 0 && p.YearStart > p.YearEnd {
		return domain.NewValidationError("year_start", "must not be after year_end")
	}
	if p.Limit < 0 {
		return domain.NewValidationError("limit", "must not be negative")
	}
	if p.Discipline != "" && !KnownDiscipline(p.Discipline) {
		return domain.NewValidationError("discipline", "unknown discipline "+p.Discipline)
	}
	if p.EducationLevel != "" && !KnownEducationLevel(p.EducationLevel) {
		return domain.NewValidationError("education_level", "unknown education level "+p.EducationLevel)
	}
	return nil
}

// InYearRange reports whether a four-digit year string falls inside the
// requested range. Non-numeric years (including the "Unknown" placeholder)
// pass the filter; sources without a native year filter use this for
// post-hoc filtering and must not drop documents just because the
// repository omitted a date.
func (p SearchParams) InYearRange(year string) bool {
	var y int
	if _, err := fmt.Sscanf(year, "%d", &y); err != nil || y < minYear {
		return true
	}
	if p.YearStart != 0 && y < p.YearStart {
		return false
	}
	if p.YearEnd != 0 && y > p.YearEnd {
		return false
	}
	return true
}

// SearchResult contains the results from one source's search operation.
type SearchResult struct {
	// Documents contains the normalized documents returned by the search.
	// May be empty if no documents match.
	Documents []*domain.Document

	// TotalResults is the total number of matches reported by the source,
	// regardless of pagination. May be an estimate.
	TotalResults int

	// HasMore indicates whether additional results are available beyond
	// the current page.
	HasMore bool

	// NextOffset is the offset to use for the next page.
	// Only meaningful when HasMore is true.
	NextOffset int

	// Source identifies which repository provided these results.
	Source domain.SourceType

	// SearchDuration is the time taken to execute the search, including
	// network latency and response parsing.
	SearchDuration time.Duration
}

// Source defines the interface that all repository clients implement.
type Source interface {
	// Search queries the repository for documents matching the given
	// parameters. Implementations must wait on their own rate limiter
	// before every outbound request, clamp the page size to the
	// repository's documented maximum, and respect context cancellation.
	// A zero-match search returns an empty result, not an error; errors
	// mean the source itself failed (network, non-2xx, parse).
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// GetByID retrieves a specific document by its source-specific
	// identifier. Sources without a lookup endpoint return
	// domain.ErrNotSupported.
	GetByID(ctx context.Context, id string) (*domain.Document, error)

	// SourceType returns the type identifier for this source.
	SourceType() domain.SourceType

	// Name returns a human-readable name for this source.
	Name() string

	// IsEnabled returns whether this source is enabled and available.
	IsEnabled() bool
}
