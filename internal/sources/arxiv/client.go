package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/openshelf/openaccess-service/internal/domain"
	"github.com/openshelf/openaccess-service/internal/normalize"
	"github.com/openshelf/openaccess-service/internal/sources"
)

const (
	// DefaultBaseURL is the arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org"

	// DefaultMinInterval follows the arXiv API guidance of no more than
	// one request every three seconds.
	DefaultMinInterval = 3 * time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default page size.
	DefaultMaxResults = 25

	// MaxResultsLimit caps the page size; the API tolerates more but
	// responses degrade well before its hard ceiling.
	MaxResultsLimit = 100

	absPathSegment = "/abs/"
	pdfPathSegment = "/pdf/"
)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// MinInterval is the minimum spacing between requests.
	MinInterval time.Duration

	// MaxResults is the default page size.
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

// Client implements the sources.Source interface for the arXiv Atom API.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
	parser     *gofeed.Parser
}

var _ sources.Source = (*Client)(nil)

// New creates a new arXiv client.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:     cfg.Timeout,
		MinInterval: cfg.MinInterval,
	})

	return &Client{config: cfg, httpClient: httpClient, parser: gofeed.NewParser()}
}

// NewWithHTTPClient creates a client with a custom HTTP client, useful for
// testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient, parser: gofeed.NewParser()}
}

// Search queries the arXiv Atom API for preprints matching the parameters.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	startTime := time.Now()

	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	feed, err := c.fetchFeed(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	documents := make([]*domain.Document, 0, len(feed.Items))
	for _, item := range feed.Items {
		if doc := entryToDocument(item); doc != nil {
			documents = append(documents, doc)
		}
	}

	total := totalResults(feed)
	nextOffset := params.Offset + len(documents)
	return &sources.SearchResult{
		Documents:      documents,
		TotalResults:   total,
		HasMore:        nextOffset < total,
		NextOffset:     nextOffset,
		Source:         domain.SourceTypeArXiv,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves a preprint by arXiv identifier (e.g. 2301.07041).
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/api/query"
	query := url.Values{}
	query.Set("id_list", strings.TrimPrefix(id, "arxiv:"))
	query.Set("max_results", "1")
	baseURL.RawQuery = query.Encode()

	feed, err := c.fetchFeed(ctx, baseURL.String())
	if err != nil {
		return nil, err
	}
	if len(feed.Items) == 0 {
		return nil, domain.NewNotFoundError("document", id)
	}

	doc := entryToDocument(feed.Items[0])
	if doc == nil {
		return nil, domain.NewNotFoundError("document", id)
	}
	return doc, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeArXiv
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return "arXiv"
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func (c *Client) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
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
		return nil, domain.NewExternalAPIError("arXiv", resp.StatusCode, string(body), nil)
	}

	feed, err := c.parser.Parse(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return feed, nil
}

func (c *Client) buildSearchURL(params sources.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/api/query"

	clauses := []string{fmt.Sprintf("all:%q", params.Query)}
	if frag := categoryFragments.Expand(params.Discipline); frag != "" {
		clauses = append(clauses, frag)
	}
	if params.YearStart != 0 || params.YearEnd != 0 {
		from := "19910101"
		to := time.Now().Format("20060102")
		if params.YearStart != 0 {
			from = fmt.Sprintf("%d0101", params.YearStart)
		}
		if params.YearEnd != 0 {
			to = fmt.Sprintf("%d1231", params.YearEnd)
		}
		clauses = append(clauses, fmt.Sprintf("submittedDate:[%s0000 TO %s2359]", from, to))
	}

	limit := params.Limit
	if limit == 0 {
		limit = c.config.MaxResults
	}
	if limit > MaxResultsLimit {
		limit = MaxResultsLimit
	}

	query := url.Values{}
	query.Set("search_query", strings.Join(clauses, " AND "))
	query.Set("start", strconv.Itoa(params.Offset))
	query.Set("max_results", strconv.Itoa(limit))
	query.Set("sortBy", "relevance")

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// entryToDocument maps an Atom entry onto the canonical document shape.
// arXiv wraps titles and summaries across lines; whitespace is collapsed.
func entryToDocument(item *gofeed.Item) *domain.Document {
	if item == nil {
		return nil
	}

	title := normalize.CollapseWhitespace(item.Title)
	if title == "" {
		return nil
	}

	fullTextURL := pdfLink(item)
	if fullTextURL == "" {
		return nil
	}

	authors := make([]string, 0, len(item.Authors))
	for _, person := range item.Authors {
		if person != nil {
			authors = append(authors, person.Name)
		}
	}

	year := domain.UnknownYear
	if item.PublishedParsed != nil {
		year = strconv.Itoa(item.PublishedParsed.Year())
	} else if item.Published != "" {
		year = normalize.ExtractYear(item.Published)
	}

	doc := &domain.Document{
		Title:       title,
		Authors:     normalize.Authors(authors),
		Abstract:    normalize.Abstract(item.Description),
		Year:        year,
		Source:      string(domain.SourceTypeArXiv),
		FullTextURL: fullTextURL,
		DOI:         extensionValue(item, "doi"),
		Journal:     extensionValue(item, "journal_ref"),
		ContentType: domain.ContentTypePaper,
		Subjects:    normalize.Subjects(item.Categories),
	}
	doc.FillDefaults()
	if !doc.HasUsableURL() {
		return nil
	}
	return doc
}

// pdfLink picks the entry's PDF link, deriving one from the abstract page
// link when the feed omits it.
func pdfLink(item *gofeed.Item) string {
	for _, link := range item.Links {
		if strings.Contains(link, pdfPathSegment) {
			return link
		}
	}
	if strings.Contains(item.Link, absPathSegment) {
		return strings.Replace(item.Link, absPathSegment, pdfPathSegment, 1)
	}
	return ""
}

// extensionValue reads a value from the entry's arxiv extension namespace.
func extensionValue(item *gofeed.Item, name string) string {
	for _, exts := range item.Extensions {
		if nodes, ok := exts[name]; ok && len(nodes) > 0 {
			return strings.TrimSpace(nodes[0].Value)
		}
	}
	return ""
}

// totalResults reads the opensearch total hit count from the feed envelope.
func totalResults(feed *gofeed.Feed) int {
	for _, exts := range feed.Extensions {
		if nodes, ok := exts["totalResults"]; ok && len(nodes) > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(nodes[0].Value)); err == nil {
				return n
			}
		}
	}
	return len(feed.Items)
}
