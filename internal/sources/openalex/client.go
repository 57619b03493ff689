package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/openshelf/openaccess-service/internal/domain"
	"github.com/openshelf/openaccess-service/internal/normalize"
	"github.com/openshelf/openaccess-service/internal/sources"
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultMinInterval spaces requests per the polite-pool guidance.
	DefaultMinInterval = 100 * time.Millisecond

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default page size.
	DefaultMaxResults = 25

	// MaxResultsLimit is the largest page size the API accepts.
	MaxResultsLimit = 200

	doiPrefix        = "https://doi.org/"
	openAlexIDPrefix = "https://openalex.org/"
)

// disciplineFilters maps the controlled discipline vocabulary to OpenAlex
// concept search filters.
var disciplineFilters = sources.ExpansionTable{
	sources.DisciplineBiology:         "concepts.display_name.search:biology",
	sources.DisciplineChemistry:       "concepts.display_name.search:chemistry",
	sources.DisciplinePhysics:         "concepts.display_name.search:physics",
	sources.DisciplineMathematics:     "concepts.display_name.search:mathematics",
	sources.DisciplineComputerScience: "concepts.display_name.search:computer science",
	sources.DisciplineEngineering:     "concepts.display_name.search:engineering",
	sources.DisciplineMedicine:        "concepts.display_name.search:medicine",
	sources.DisciplineEconomics:       "concepts.display_name.search:economics",
	sources.DisciplinePsychology:      "concepts.display_name.search:psychology",
	sources.DisciplineSociology:       "concepts.display_name.search:sociology",
	sources.DisciplineHistory:         "concepts.display_name.search:history",
	sources.DisciplineEducation:       "concepts.display_name.search:education",
}

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the OpenAlex API base URL.
	// Defaults to https://api.openalex.org
	BaseURL string

	// Email is the contact email for the polite pool. Providing one grants
	// access to faster infrastructure.
	Email string

	// Timeout is the request timeout.
	Timeout time.Duration

	// MinInterval is the minimum spacing between requests.
	MinInterval time.Duration

	// MaxResults is the default page size. Capped at 200 by the API.
	MaxResults int

	// Enabled indicates whether this source participates in searches.
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MinInterval == 0 {
		c.MinInterval = DefaultMinInterval
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the sources.Source interface for OpenAlex.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new OpenAlex client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:     cfg.Timeout,
		MinInterval: cfg.MinInterval,
	})

	return &Client{config: cfg, httpClient: httpClient}
}

// NewWithHTTPClient creates a client with a custom HTTP client, useful for
// testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

// Search queries OpenAlex for works matching the given parameters.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	startTime := time.Now()

	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError("OpenAlex", resp.StatusCode, string(body), nil)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	documents := make([]*domain.Document, 0, len(searchResp.Results))
	for i := range searchResp.Results {
		if doc := workToDocument(&searchResp.Results[i]); doc != nil {
			documents = append(documents, doc)
		}
	}

	nextOffset := params.Offset + len(documents)
	return &sources.SearchResult{
		Documents:      documents,
		TotalResults:   searchResp.Meta.Count,
		HasMore:        nextOffset < searchResp.Meta.Count,
		NextOffset:     nextOffset,
		Source:         domain.SourceTypeOpenAlex,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves a specific work by OpenAlex ID or DOI.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	fetchURL, err := c.buildGetByIDURL(id)
	if err != nil {
		return nil, fmt.Errorf("building fetch URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewNotFoundError("document", id)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError("OpenAlex", resp.StatusCode, string(body), nil)
	}

	var work Work
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&work); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	doc := workToDocument(&work)
	if doc == nil {
		return nil, domain.NewNotFoundError("document", id)
	}
	return doc, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeOpenAlex
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return "OpenAlex"
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func (c *Client) buildSearchURL(params sources.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/works"

	query := url.Values{}
	query.Set("search", params.Query)

	var filters []string
	if params.YearStart != 0 {
		filters = append(filters, fmt.Sprintf("from_publication_date:%d-01-01", params.YearStart))
	}
	if params.YearEnd != 0 {
		filters = append(filters, fmt.Sprintf("to_publication_date:%d-12-31", params.YearEnd))
	}
	if f := disciplineFilters.Expand(params.Discipline); f != "" {
		filters = append(filters, f)
	}
	filters = append(filters, "is_oa:true")
	query.Set("filter", strings.Join(filters, ","))

	limit := params.Limit
	if limit == 0 {
		limit = c.config.MaxResults
	}
	if limit > MaxResultsLimit {
		limit = MaxResultsLimit
	}
	query.Set("per_page", strconv.Itoa(limit))

	// OpenAlex paginates by 1-indexed page number.
	if params.Offset > 0 {
		query.Set("page", strconv.Itoa((params.Offset/limit)+1))
	}

	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

func (c *Client) buildGetByIDURL(id string) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	// OpenAlex accepts its own IDs and DOIs in several spellings.
	var workID string
	switch {
	case strings.HasPrefix(id, openAlexIDPrefix):
		workID = strings.TrimPrefix(id, openAlexIDPrefix)
	case strings.HasPrefix(id, doiPrefix):
		workID = id
	case strings.HasPrefix(id, "10."):
		workID = doiPrefix + id
	case strings.HasPrefix(id, "doi:"):
		workID = doiPrefix + strings.TrimPrefix(id, "doi:")
	default:
		workID = id
	}
	baseURL.Path = "/works/" + workID

	if c.config.Email != "" {
		query := url.Values{}
		query.Set("mailto", c.config.Email)
		baseURL.RawQuery = query.Encode()
	}
	return baseURL.String(), nil
}

// workToDocument maps an OpenAlex work onto the canonical document shape.
// Returns nil when the record lacks a usable title or any accessible URL.
func workToDocument(work *Work) *domain.Document {
	if work == nil {
		return nil
	}

	title := normalize.CollapseWhitespace(work.DisplayName)
	if title == "" {
		title = normalize.CollapseWhitespace(work.Title)
	}
	if title == "" {
		return nil
	}

	// URL preference: explicit PDF asset, then an OA landing page, then
	// the DOI-resolved URL.
	fullTextURL := pickURL(work)
	if fullTextURL == "" {
		return nil
	}

	authors := make([]string, 0, len(work.Authorships))
	for _, a := range work.Authorships {
		authors = append(authors, a.Author.DisplayName)
	}

	year := domain.UnknownYear
	if work.PublicationYear > 0 {
		year = strconv.Itoa(work.PublicationYear)
	} else if work.PublicationDate != "" {
		year = normalize.ExtractYear(work.PublicationDate)
	}

	var journal, license string
	if work.PrimaryLocation != nil {
		license = work.PrimaryLocation.License
		if work.PrimaryLocation.Source != nil {
			journal = work.PrimaryLocation.Source.DisplayName
		}
	}
	if license == "" && work.BestOALocation != nil {
		license = work.BestOALocation.License
	}

	subjects := make([]string, 0, len(work.Concepts))
	for _, concept := range work.Concepts {
		subjects = append(subjects, concept.DisplayName)
	}

	doc := &domain.Document{
		Title:         title,
		Authors:       normalize.Authors(authors),
		Abstract:      normalize.Abstract(reconstructAbstract(work.AbstractInvertedIndex)),
		Year:          year,
		Source:        string(domain.SourceTypeOpenAlex),
		FullTextURL:   fullTextURL,
		DOI:           normalizeDOI(work.DOI),
		Journal:       journal,
		License:       license,
		CitationCount: work.CitedByCount,
		ContentType:   domain.ContentTypePaper,
		Language:      work.Language,
		Subjects:      normalize.Subjects(subjects),
	}
	doc.FillDefaults()
	if !doc.HasUsableURL() {
		return nil
	}
	return doc
}

func pickURL(work *Work) string {
	if work.BestOALocation != nil && work.BestOALocation.PDFURL != "" {
		return work.BestOALocation.PDFURL
	}
	if work.OpenAccess != nil && work.OpenAccess.OAURL != "" {
		return work.OpenAccess.OAURL
	}
	if work.PrimaryLocation != nil {
		if work.PrimaryLocation.PDFURL != "" {
			return work.PrimaryLocation.PDFURL
		}
		if work.PrimaryLocation.IsOA && work.PrimaryLocation.LandingURL != "" {
			return work.PrimaryLocation.LandingURL
		}
	}
	if work.OpenAccess != nil && work.OpenAccess.IsOA && work.DOI != "" {
		return work.DOI
	}
	return ""
}

// normalizeDOI strips URL and scheme prefixes and lowercases the DOI.
func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, doiPrefix)
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(strings.TrimSpace(doi))
}

// reconstructAbstract rebuilds abstract text from OpenAlex's inverted index,
// which maps words to their positions in the original text.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	const maxAbstractWords = 100_000
	total := 0
	for _, positions := range invertedIndex {
		total += len(positions)
	}
	if total > maxAbstractWords {
		return ""
	}

	pairs := make([]posWord, 0, total)
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].pos < pairs[j].pos })

	var builder strings.Builder
	builder.Grow(total * 7)
	for i, pair := range pairs {
		if i > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(pair.word)
	}
	return builder.String()
}
