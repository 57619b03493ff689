// Package doab implements the sources.Source interface for the Directory of
// Open Access Books. The REST API is DSpace-backed: records are flat
// key/value metadata lists that need reassembling into the canonical shape.
package doab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openshelf/openaccess-service/internal/domain"
	"github.com/openshelf/openaccess-service/internal/normalize"
	"github.com/openshelf/openaccess-service/internal/sources"
)

const (
	// DefaultBaseURL is the DOAB REST API base URL.
	DefaultBaseURL = "https://directory.doabooks.org"

	// DefaultMinInterval spaces requests politely.
	DefaultMinInterval = time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default page size.
	DefaultMaxResults = 25

	// MaxResultsLimit caps the page size.
	MaxResultsLimit = 100
)

// subjectKeywords appends subject keywords to the query text.
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

// Config holds configuration for the DOAB client.
type Config struct {
	// BaseURL is the DOAB base URL.
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

// Client implements the sources.Source interface for DOAB.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new DOAB client.
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

// Search queries DOAB for books matching the given parameters. The API has
// no native year filter, so the year range is applied post hoc.
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
		return nil, domain.NewExternalAPIError("DOAB", resp.StatusCode, string(body), nil)
	}

	var items []Item
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	documents := make([]*domain.Document, 0, len(items))
	for i := range items {
		doc := itemToDocument(&items[i], c.config.BaseURL)
		if doc == nil {
			continue
		}
		if !params.InYearRange(doc.Year) {
			continue
		}
		documents = append(documents, doc)
	}

	return &sources.SearchResult{
		Documents:      documents,
		TotalResults:   len(items),
		HasMore:        false,
		NextOffset:     params.Offset + len(items),
		Source:         domain.SourceTypeDOAB,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID is not supported; the REST search endpoint is the only one this
// client consumes.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return nil, domain.ErrNotSupported
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeDOAB
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return "DOAB"
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
	baseURL.Path = "/rest/search"

	queryText := params.Query
	if kw := subjectKeywords.Expand(params.Discipline); kw != "" {
		queryText += " " + kw
	}

	limit := params.Limit
	if limit == 0 {
		limit = c.config.MaxResults
	}
	if limit > MaxResultsLimit {
		limit = MaxResultsLimit
	}

	query := url.Values{}
	query.Set("query", queryText)
	query.Set("expand", "metadata")
	query.Set("limit", fmt.Sprintf("%d", limit))
	if params.Offset > 0 {
		query.Set("offset", fmt.Sprintf("%d", params.Offset))
	}

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// itemToDocument reassembles a DSpace metadata list into the canonical
// document shape. Returns nil when the item lacks a title or handle.
func itemToDocument(item *Item, baseURL string) *domain.Document {
	if item == nil {
		return nil
	}

	meta := make(map[string][]string, len(item.Metadata))
	for _, m := range item.Metadata {
		meta[m.Key] = append(meta[m.Key], m.Value)
	}

	title := normalize.CollapseWhitespace(first(meta, "dc.title"))
	if title == "" {
		title = normalize.CollapseWhitespace(item.Name)
	}
	if title == "" || item.Handle == "" {
		return nil
	}

	year := domain.UnknownYear
	if issued := first(meta, "dc.date.issued"); issued != "" {
		year = normalize.ExtractYear(issued)
	}

	doc := &domain.Document{
		Title:       title,
		Authors:     normalize.Authors(meta["dc.contributor.author"]),
		Abstract:    normalize.Abstract(first(meta, "dc.description.abstract")),
		Year:        year,
		Source:      string(domain.SourceTypeDOAB),
		FullTextURL: strings.TrimSuffix(baseURL, "/") + "/handle/" + item.Handle,
		DOI:         strings.ToLower(strings.TrimSpace(first(meta, "oapen.identifier.doi"))),
		License:     first(meta, "oapen.licence"),
		ContentType: domain.ContentTypeBook,
		Publisher:   first(meta, "publisher.name"),
		Language:    first(meta, "dc.language"),
		Subjects:    normalize.Subjects(meta["dc.subject.other"]),
		ISBN:        first(meta, "dc.identifier.isbn"),
	}
	doc.FillDefaults()
	if !doc.HasUsableURL() {
		return nil
	}
	return doc
}

func first(meta map[string][]string, key string) string {
	if values := meta[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}
