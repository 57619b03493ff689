// Package doaj implements the sources.Source interface for the Directory of
// Open Access Journals. Every DOAJ article is open access by definition;
// the value of the source is its rich journal metadata.
package doaj

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
	// DefaultBaseURL is the DOAJ API base URL.
	DefaultBaseURL = "https://doaj.org/api"

	// DefaultMinInterval spaces requests politely; DOAJ publishes no hard
	// limit for anonymous use.
	DefaultMinInterval = 500 * time.Millisecond

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default page size.
	DefaultMaxResults = 25

	// MaxResultsLimit is the largest pageSize the API accepts.
	MaxResultsLimit = 100
)

// subjectKeywords appends subject terms to the query text.
var subjectKeywords = sources.ExpansionTable{
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

// Config holds configuration for the DOAJ client.
type Config struct {
	// BaseURL is the DOAJ API base URL.
	BaseURL string

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

// Client implements the sources.Source interface for DOAJ.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new DOAJ client.
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

// Search queries DOAJ for articles matching the given parameters.
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
		return nil, domain.NewExternalAPIError("DOAJ", resp.StatusCode, string(body), nil)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	documents := make([]*domain.Document, 0, len(searchResp.Results))
	for i := range searchResp.Results {
		if doc := articleToDocument(&searchResp.Results[i]); doc != nil {
			documents = append(documents, doc)
		}
	}

	nextOffset := params.Offset + len(documents)
	return &sources.SearchResult{
		Documents:      documents,
		TotalResults:   searchResp.Total,
		HasMore:        nextOffset < searchResp.Total,
		NextOffset:     nextOffset,
		Source:         domain.SourceTypeDOAJ,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves an article by its DOAJ identifier.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimSuffix(baseURL.Path, "/") + "/articles/" + id

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
		return nil, domain.NewExternalAPIError("DOAJ", resp.StatusCode, string(body), nil)
	}

	var article Article
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&article); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	doc := articleToDocument(&article)
	if doc == nil {
		return nil, domain.NewNotFoundError("document", id)
	}
	return doc, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeDOAJ
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return "DOAJ"
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

	queryText := params.Query
	if kw := subjectKeywords.Expand(params.Discipline); kw != "" {
		queryText += " " + kw
	}
	// DOAJ has a native year filter in its Lucene-style query syntax.
	if params.YearStart != 0 || params.YearEnd != 0 {
		from, to := "*", "*"
		if params.YearStart != 0 {
			from = strconv.Itoa(params.YearStart)
		}
		if params.YearEnd != 0 {
			to = strconv.Itoa(params.YearEnd)
		}
		queryText += fmt.Sprintf(" AND bibjson.year:[%s TO %s]", from, to)
	}

	// The query is a path segment on this API. Path holds the unescaped
	// form; URL.String escapes it exactly once on the way out.
	baseURL.Path = strings.TrimSuffix(baseURL.Path, "/") + "/search/articles/" + queryText

	limit := params.Limit
	if limit == 0 {
		limit = c.config.MaxResults
	}
	if limit > MaxResultsLimit {
		limit = MaxResultsLimit
	}

	query := url.Values{}
	query.Set("pageSize", strconv.Itoa(limit))
	if params.Offset > 0 {
		query.Set("page", strconv.Itoa((params.Offset/limit)+1))
	}

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// articleToDocument maps a DOAJ article onto the canonical document shape.
// Returns nil when the record lacks a usable title or full-text link.
func articleToDocument(article *Article) *domain.Document {
	if article == nil {
		return nil
	}
	bib := &article.BibJSON

	title := normalize.CollapseWhitespace(bib.Title)
	if title == "" {
		return nil
	}

	var fullTextURL string
	for _, link := range bib.Links {
		if link.Type == "fulltext" && link.URL != "" {
			fullTextURL = link.URL
			break
		}
	}
	if fullTextURL == "" {
		for _, link := range bib.Links {
			if link.URL != "" {
				fullTextURL = link.URL
				break
			}
		}
	}
	if fullTextURL == "" {
		return nil
	}

	var doi string
	for _, id := range bib.Identifier {
		if strings.EqualFold(id.Type, "doi") {
			doi = strings.ToLower(strings.TrimSpace(id.ID))
			break
		}
	}

	authors := make([]string, 0, len(bib.Authors))
	for _, a := range bib.Authors {
		authors = append(authors, a.Name)
	}

	var license string
	if len(bib.Journal.License) > 0 {
		license = bib.Journal.License[0].Type
		if license == "" {
			license = bib.Journal.License[0].Title
		}
	}

	var language string
	if len(bib.Journal.Language) > 0 {
		language = bib.Journal.Language[0]
	}

	subjects := make([]string, 0, len(bib.Subjects)+len(bib.Keywords))
	for _, s := range bib.Subjects {
		subjects = append(subjects, s.Term)
	}
	subjects = append(subjects, bib.Keywords...)

	year := domain.UnknownYear
	if bib.Year != "" {
		year = normalize.ExtractYear(bib.Year)
	}

	doc := &domain.Document{
		Title:       title,
		Authors:     normalize.Authors(authors),
		Abstract:    normalize.Abstract(bib.Abstract),
		Year:        year,
		Source:      string(domain.SourceTypeDOAJ),
		FullTextURL: fullTextURL,
		DOI:         doi,
		Journal:     bib.Journal.Title,
		License:     license,
		Publisher:   bib.Journal.Publisher,
		ContentType: domain.ContentTypePaper,
		Language:    language,
		Subjects:    normalize.Subjects(subjects),
	}
	doc.FillDefaults()
	if !doc.HasUsableURL() {
		return nil
	}
	return doc
}
