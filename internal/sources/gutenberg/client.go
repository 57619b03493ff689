// Package gutenberg implements the sources.Source interface for Project
// Gutenberg via the Gutendex API. Everything in the corpus is public
// domain; the interesting work is choosing among the per-format asset URLs.
package gutenberg

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
	// DefaultBaseURL is the Gutendex API base URL.
	DefaultBaseURL = "https://gutendex.com"

	// DefaultMinInterval spaces requests politely.
	DefaultMinInterval = 500 * time.Millisecond

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// pageSize is fixed by the API at 32 results per page.
	pageSize = 32

	publicDomainLicense = "Public domain"
)

// formatPreference orders the MIME types worth surfacing as the full-text
// URL. Gutendex lists scans of page images too; those never appear here.
var formatPreference = []string{
	"application/pdf",
	"application/epub+zip",
	"text/html",
	"text/plain; charset=utf-8",
	"text/plain",
}

// topicKeywords maps the controlled discipline vocabulary to Gutendex topic
// terms. The corpus is literature-heavy; only a few disciplines map.
var topicKeywords = sources.ExpansionTable{
	sources.DisciplineBiology:    "biology",
	sources.DisciplinePhysics:    "physics",
	sources.DisciplineHistory:    "history",
	sources.DisciplinePsychology: "psychology",
	sources.DisciplineEducation:  "education",
}

// Config holds configuration for the Gutendex client.
type Config struct {
	// BaseURL is the Gutendex API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// MinInterval is the minimum spacing between requests.
	MinInterval time.Duration

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
}

// Client implements the sources.Source interface for Project Gutenberg.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new Gutendex client.
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

// Search queries Gutendex for books matching the given parameters. Project
// Gutenberg records carry no publication year, so documents pass any year
// filter with the unknown-year placeholder.
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
		return nil, domain.NewExternalAPIError("Gutenberg", resp.StatusCode, string(body), nil)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	limit := params.Limit
	if limit == 0 || limit > len(searchResp.Results) {
		limit = len(searchResp.Results)
	}

	documents := make([]*domain.Document, 0, limit)
	for i := range searchResp.Results[:limit] {
		if doc := bookToDocument(&searchResp.Results[i]); doc != nil {
			documents = append(documents, doc)
		}
	}

	nextOffset := params.Offset + len(searchResp.Results)
	return &sources.SearchResult{
		Documents:      documents,
		TotalResults:   searchResp.Count,
		HasMore:        searchResp.Next != "",
		NextOffset:     nextOffset,
		Source:         domain.SourceTypeGutenberg,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves a book by its Gutenberg catalog number.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/books/" + id

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
		return nil, domain.NewExternalAPIError("Gutenberg", resp.StatusCode, string(body), nil)
	}

	var book Book
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&book); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	doc := bookToDocument(&book)
	if doc == nil {
		return nil, domain.NewNotFoundError("document", id)
	}
	return doc, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeGutenberg
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return "Project Gutenberg"
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
	baseURL.Path = "/books"

	query := url.Values{}
	query.Set("search", params.Query)
	if kw := topicKeywords.Expand(params.Discipline); kw != "" {
		query.Set("topic", kw)
	}
	if params.Offset > 0 {
		query.Set("page", strconv.Itoa((params.Offset/pageSize)+1))
	}

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// bookToDocument maps a Gutendex book onto the canonical document shape.
// Returns nil when the record lacks a title or any readable format.
func bookToDocument(book *Book) *domain.Document {
	if book == nil {
		return nil
	}
	if book.Copyright != nil && *book.Copyright {
		return nil
	}

	title := normalize.CollapseWhitespace(book.Title)
	if title == "" {
		return nil
	}

	fullTextURL, formats := pickFormats(book.Formats)
	if fullTextURL == "" {
		return nil
	}

	authors := make([]string, 0, len(book.Authors))
	for _, p := range book.Authors {
		authors = append(authors, flipName(p.Name))
	}

	var language string
	if len(book.Languages) > 0 {
		language = book.Languages[0]
	}

	doc := &domain.Document{
		Title:           title,
		Authors:         normalize.Authors(authors),
		Year:            domain.UnknownYear,
		Source:          string(domain.SourceTypeGutenberg),
		FullTextURL:     fullTextURL,
		License:         publicDomainLicense,
		ContentType:     domain.ContentTypeBook,
		Publisher:       "Project Gutenberg",
		Language:        language,
		Subjects:        normalize.Subjects(book.Subjects),
		DownloadFormats: formats,
	}
	doc.FillDefaults()
	if !doc.HasUsableURL() {
		return nil
	}
	return doc
}

// pickFormats chooses the best full-text URL by format preference and
// collects the readable format names offered.
func pickFormats(formats map[string]string) (string, []string) {
	var best string
	var offered []string
	for _, mime := range formatPreference {
		u, ok := formats[mime]
		if !ok || u == "" {
			continue
		}
		if best == "" {
			best = u
		}
		offered = append(offered, shortFormat(mime))
	}
	return best, offered
}

func shortFormat(mime string) string {
	switch {
	case strings.HasPrefix(mime, "application/pdf"):
		return "pdf"
	case strings.HasPrefix(mime, "application/epub"):
		return "epub"
	case strings.HasPrefix(mime, "text/html"):
		return "html"
	default:
		return "txt"
	}
}

// flipName converts Gutenberg's "Last, First" author form to "First Last".
func flipName(name string) string {
	parts := strings.SplitN(name, ",", 2)
	if len(parts) != 2 {
		return name
	}
	return strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0])
}
