package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openshelf/openaccess-service/internal/domain"
	"github.com/openshelf/openaccess-service/internal/normalize"
	"github.com/openshelf/openaccess-service/internal/sources"
)

const (
	// DefaultBaseURL is the Semantic Scholar Academic Graph API base URL.
	DefaultBaseURL = "https://api.semanticscholar.org"

	// DefaultMinInterval reflects the unauthenticated rate limit of roughly
	// one request per second.
	DefaultMinInterval = time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default page size.
	DefaultMaxResults = 25

	// MaxResultsLimit is the largest page size the API accepts.
	MaxResultsLimit = 100

	// searchFields selects the response fields needed for normalization.
	searchFields = "title,abstract,year,citationCount,venue,externalIds,openAccessPdf,isOpenAccess,authors,fieldsOfStudy"
)

// disciplineKeywords appends a repository keyword to the query text; the
// graph API has no subject filter parameter.
var disciplineKeywords = sources.ExpansionTable{
	sources.DisciplineBiology:         "biology",
	sources.DisciplineChemistry:       "chemistry",
	sources.DisciplinePhysics:         "physics",
	sources.DisciplineMathematics:     "mathematics",
	sources.DisciplineComputerScience: "computer science",
	sources.DisciplineEngineering:     "engineering",
	sources.DisciplineMedicine:        "medicine",
	sources.DisciplineEconomics:       "economics",
	sources.DisciplinePsychology:      "psychology",
	sources.DisciplineSociology:       "sociology",
	sources.DisciplineHistory:         "history",
	sources.DisciplineEducation:       "education",
}

// Config holds configuration for the Semantic Scholar client.
type Config struct {
	// BaseURL is the API base URL.
	BaseURL string

	// APIKey is an optional API key sent as the x-api-key header; it
	// raises the rate limit substantially.
	APIKey string

	// Timeout is the request timeout.
	Timeout time.Duration

	// MinInterval is the minimum spacing between requests.
	MinInterval time.Duration

	// MaxResults is the default page size. Capped at 100 by the API.
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

// Client implements the sources.Source interface for Semantic Scholar.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new Semantic Scholar client.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:      cfg.Timeout,
		MinInterval:  cfg.MinInterval,
		APIKey:       cfg.APIKey,
		APIKeyHeader: "x-api-key",
	})

	return &Client{config: cfg, httpClient: httpClient}
}

// NewWithHTTPClient creates a client with a custom HTTP client, useful for
// testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

// Search queries Semantic Scholar for papers matching the given parameters.
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
		return nil, domain.NewExternalAPIError("SemanticScholar", resp.StatusCode, string(body), nil)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	documents := make([]*domain.Document, 0, len(searchResp.Data))
	for i := range searchResp.Data {
		if doc := paperToDocument(&searchResp.Data[i]); doc != nil {
			documents = append(documents, doc)
		}
	}

	nextOffset := params.Offset + len(documents)
	return &sources.SearchResult{
		Documents:      documents,
		TotalResults:   searchResp.Total,
		HasMore:        searchResp.Next > 0,
		NextOffset:     nextOffset,
		Source:         domain.SourceTypeSemanticScholar,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves a paper by Semantic Scholar ID, DOI or arXiv ID.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/graph/v1/paper/" + id
	query := url.Values{}
	query.Set("fields", searchFields)
	baseURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
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
		return nil, domain.NewExternalAPIError("SemanticScholar", resp.StatusCode, string(body), nil)
	}

	var paper Paper
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&paper); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	doc := paperToDocument(&paper)
	if doc == nil {
		return nil, domain.NewNotFoundError("document", id)
	}
	return doc, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeSemanticScholar
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return "Semantic Scholar"
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
	baseURL.Path = "/graph/v1/paper/search"

	queryText := params.Query
	if kw := disciplineKeywords.Expand(params.Discipline); kw != "" {
		queryText = queryText + " " + kw
	}

	query := url.Values{}
	query.Set("query", queryText)
	query.Set("fields", searchFields)
	query.Set("openAccessPdf", "")

	// The year filter takes a single YYYY-YYYY range parameter; an open
	// end is expressed by leaving that side empty.
	if params.YearStart != 0 || params.YearEnd != 0 {
		var from, to string
		if params.YearStart != 0 {
			from = strconv.Itoa(params.YearStart)
		}
		if params.YearEnd != 0 {
			to = strconv.Itoa(params.YearEnd)
		}
		query.Set("year", from+"-"+to)
	}

	limit := params.Limit
	if limit == 0 {
		limit = c.config.MaxResults
	}
	if limit > MaxResultsLimit {
		limit = MaxResultsLimit
	}
	query.Set("limit", strconv.Itoa(limit))
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// paperToDocument maps a Semantic Scholar paper onto the canonical document
// shape. Returns nil when the record lacks a usable title or URL.
func paperToDocument(paper *Paper) *domain.Document {
	if paper == nil {
		return nil
	}

	title := normalize.CollapseWhitespace(paper.Title)
	if title == "" {
		return nil
	}

	var fullTextURL string
	if paper.OpenAccessPdf != nil {
		fullTextURL = paper.OpenAccessPdf.URL
	}
	if fullTextURL == "" && paper.IsOpenAccess && paper.ExternalIDs != nil && paper.ExternalIDs.DOI != "" {
		fullTextURL = "https://doi.org/" + paper.ExternalIDs.DOI
	}
	if fullTextURL == "" {
		return nil
	}

	authors := make([]string, 0, len(paper.Authors))
	for _, a := range paper.Authors {
		authors = append(authors, a.Name)
	}

	year := domain.UnknownYear
	if paper.Year > 0 {
		year = strconv.Itoa(paper.Year)
	}

	var doi string
	if paper.ExternalIDs != nil {
		doi = strings.ToLower(strings.TrimSpace(paper.ExternalIDs.DOI))
	}

	doc := &domain.Document{
		Title:         title,
		Authors:       normalize.Authors(authors),
		Abstract:      normalize.Abstract(paper.Abstract),
		Year:          year,
		Source:        string(domain.SourceTypeSemanticScholar),
		FullTextURL:   fullTextURL,
		DOI:           doi,
		Journal:       paper.Venue,
		CitationCount: paper.CitationCount,
		ContentType:   domain.ContentTypePaper,
		Subjects:      normalize.Subjects(paper.FieldsOfStudy),
	}
	doc.FillDefaults()
	if !doc.HasUsableURL() {
		return nil
	}
	return doc
}
