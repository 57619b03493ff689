// Package openlibrary implements the sources.Source interface for Open
// Library (openlibrary.org). Only records whose ebook is publicly readable
// pass; borrow-only and metadata-only records are dropped.
package openlibrary

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
	// DefaultBaseURL is the Open Library base URL.
	DefaultBaseURL = "https://openlibrary.org"

	// DefaultMinInterval spaces requests politely.
	DefaultMinInterval = time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default page size.
	DefaultMaxResults = 25

	// MaxResultsLimit is the largest page size the search API accepts.
	MaxResultsLimit = 100

	// ebookAccessPublic marks books readable without a loan.
	ebookAccessPublic = "public"

	archiveDetailsURL = "https://archive.org/details/"

	searchFields = "key,title,author_name,first_publish_year,ebook_access,ia,language,subject,publisher,isbn,number_of_pages_median"
)

// subjectKeywords maps the controlled discipline vocabulary to Open Library
// subject terms.
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

// Config holds configuration for the Open Library client.
type Config struct {
	// BaseURL is the Open Library base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// MinInterval is the minimum spacing between requests.
	MinInterval time.Duration

	// MaxResults is the default page size. Capped at 100.
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

// Client implements the sources.Source interface for Open Library.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new Open Library client.
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

// Search queries Open Library for books matching the given parameters.
// The search API has no year filter, so the year range is applied post hoc;
// books without a publish year are kept.
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
		return nil, domain.NewExternalAPIError("OpenLibrary", resp.StatusCode, string(body), nil)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	documents := make([]*domain.Document, 0, len(searchResp.Docs))
	for i := range searchResp.Docs {
		doc := docToDocument(&searchResp.Docs[i], c.config.BaseURL)
		if doc == nil {
			continue
		}
		if !params.InYearRange(doc.Year) {
			continue
		}
		documents = append(documents, doc)
	}

	nextOffset := params.Offset + len(searchResp.Docs)
	return &sources.SearchResult{
		Documents:      documents,
		TotalResults:   searchResp.NumFound,
		HasMore:        nextOffset < searchResp.NumFound,
		NextOffset:     nextOffset,
		Source:         domain.SourceTypeOpenLibrary,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID is not supported; the search API is the only endpoint that
// returns the ebook access field this client depends on.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return nil, domain.ErrNotSupported
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeOpenLibrary
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return "Open Library"
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
	baseURL.Path = "/search.json"

	queryText := params.Query
	if kw := subjectKeywords.Expand(params.Discipline); kw != "" {
		queryText += " subject:" + strconv.Quote(kw)
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
	query.Set("fields", searchFields)
	query.Set("limit", strconv.Itoa(limit))
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// docToDocument maps an Open Library search hit onto the canonical document
// shape. Returns nil when the hit lacks a title or a publicly readable copy.
func docToDocument(hit *Doc, baseURL string) *domain.Document {
	if hit == nil {
		return nil
	}

	title := normalize.CollapseWhitespace(hit.Title)
	if title == "" {
		return nil
	}
	if hit.EbookAccess != ebookAccessPublic {
		return nil
	}

	// A scanned copy on the Internet Archive is the readable asset; the
	// work page is only a fallback.
	var fullTextURL string
	if len(hit.IA) > 0 && hit.IA[0] != "" {
		fullTextURL = archiveDetailsURL + hit.IA[0]
	} else if hit.Key != "" {
		fullTextURL = strings.TrimSuffix(baseURL, "/") + hit.Key
	}
	if fullTextURL == "" {
		return nil
	}

	year := domain.UnknownYear
	if hit.FirstPublishYear > 0 {
		year = strconv.Itoa(hit.FirstPublishYear)
	}

	var publisher string
	if len(hit.Publisher) > 0 {
		publisher = hit.Publisher[0]
	}
	var language string
	if len(hit.Language) > 0 {
		language = hit.Language[0]
	}
	var isbn string
	if len(hit.ISBN) > 0 {
		isbn = hit.ISBN[0]
	}

	doc := &domain.Document{
		Title:       title,
		Authors:     normalize.Authors(hit.AuthorName),
		Year:        year,
		Source:      string(domain.SourceTypeOpenLibrary),
		FullTextURL: fullTextURL,
		ContentType: domain.ContentTypeBook,
		Publisher:   publisher,
		Language:    language,
		Subjects:    normalize.Subjects(hit.Subject),
		PageCount:   hit.NumberOfPages,
		ISBN:        isbn,
	}
	doc.FillDefaults()
	if !doc.HasUsableURL() {
		return nil
	}
	return doc
}
