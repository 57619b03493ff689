// Package core implements the sources.Source interface for the CORE
// aggregator (core.ac.uk), which indexes open-access repository content and
// exposes direct download URLs for harvested full texts.
package core

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
	// DefaultBaseURL is the CORE v3 API base URL.
	DefaultBaseURL = "https://api.core.ac.uk/v3"

	// DefaultMinInterval spaces requests to stay inside the registered
	// API-key allowance.
	DefaultMinInterval = time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default page size.
	DefaultMaxResults = 25

	// MaxResultsLimit is the largest page size the API accepts.
	MaxResultsLimit = 100
)

// fieldKeywords appends subject keywords to the query text.
var fieldKeywords = sources.ExpansionTable{
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

// Config holds configuration for the CORE client.
type Config struct {
	// BaseURL is the CORE API base URL.
	BaseURL string

	// APIKey is the CORE API key, sent as a bearer token. Required by the
	// live service.
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

// Client implements the sources.Source interface for CORE.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new CORE client.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	clientCfg := sources.HTTPClientConfig{
		Timeout:     cfg.Timeout,
		MinInterval: cfg.MinInterval,
	}
	// CORE works anonymously at a lower rate; only send Authorization
	// when a key is actually configured.
	if cfg.APIKey != "" {
		clientCfg.APIKey = "Bearer " + cfg.APIKey
		clientCfg.APIKeyHeader = "Authorization"
	}

	return &Client{config: cfg, httpClient: sources.NewHTTPClient(clientCfg)}
}

// NewWithHTTPClient creates a client with a custom HTTP client, useful for
// testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

// Search queries CORE for works matching the given parameters.
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
		return nil, domain.NewExternalAPIError("CORE", resp.StatusCode, string(body), nil)
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
		TotalResults:   searchResp.TotalHits,
		HasMore:        nextOffset < searchResp.TotalHits,
		NextOffset:     nextOffset,
		Source:         domain.SourceTypeCORE,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves a work by its CORE identifier.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimSuffix(baseURL.Path, "/") + "/works/" + id

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
		return nil, domain.NewExternalAPIError("CORE", resp.StatusCode, string(body), nil)
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
	return domain.SourceTypeCORE
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return "CORE"
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
	baseURL.Path = strings.TrimSuffix(baseURL.Path, "/") + "/search/works"

	queryText := params.Query
	if kw := fieldKeywords.Expand(params.Discipline); kw != "" {
		queryText += " " + kw
	}
	if params.YearStart != 0 {
		queryText += fmt.Sprintf(" AND yearPublished>=%d", params.YearStart)
	}
	if params.YearEnd != 0 {
		queryText += fmt.Sprintf(" AND yearPublished<=%d", params.YearEnd)
	}

	limit := params.Limit
	if limit == 0 {
		limit = c.config.MaxResults
	}
	if limit > MaxResultsLimit {
		limit = MaxResultsLimit
	}

	query := url.Values{}
	query.Set("q", queryText)
	query.Set("limit", strconv.Itoa(limit))
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// workToDocument maps a CORE work onto the canonical document shape.
// Returns nil when the record lacks a usable title or download URL.
func workToDocument(work *Work) *domain.Document {
	if work == nil {
		return nil
	}

	title := normalize.CollapseWhitespace(work.Title)
	if title == "" {
		return nil
	}

	fullTextURL := work.DownloadURL
	if fullTextURL == "" {
		for _, link := range work.Links {
			if link.Type == "download" && link.URL != "" {
				fullTextURL = link.URL
				break
			}
		}
	}
	if fullTextURL == "" {
		return nil
	}

	authors := make([]string, 0, len(work.Authors))
	for _, a := range work.Authors {
		authors = append(authors, a.Name)
	}

	year := domain.UnknownYear
	if work.YearPublished > 0 {
		year = strconv.Itoa(work.YearPublished)
	} else if work.PublishedDate != "" {
		year = normalize.ExtractYear(work.PublishedDate)
	}

	var language string
	if work.Language != nil {
		language = work.Language.Code
	}

	var subjects []string
	if work.FieldOfStudy != "" {
		subjects = []string{work.FieldOfStudy}
	}

	doc := &domain.Document{
		Title:         title,
		Authors:       normalize.Authors(authors),
		Abstract:      normalize.Abstract(work.Abstract),
		Year:          year,
		Source:        string(domain.SourceTypeCORE),
		FullTextURL:   fullTextURL,
		DOI:           strings.ToLower(strings.TrimSpace(work.DOI)),
		Publisher:     work.Publisher,
		CitationCount: work.CitationCount,
		ContentType:   domain.ContentTypePaper,
		Language:      language,
		Subjects:      normalize.Subjects(subjects),
	}
	doc.FillDefaults()
	if !doc.HasUsableURL() {
		return nil
	}
	return doc
}
