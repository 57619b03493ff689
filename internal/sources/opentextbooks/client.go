// Package opentextbooks implements the sources.Source interface for the
// Open Textbook Library (open.umn.edu). The catalog links landing pages,
// not assets; discovered documents are handed to the full-text resolver
// downstream.
package opentextbooks

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
	// DefaultBaseURL is the Open Textbook Library base URL.
	DefaultBaseURL = "https://open.umn.edu"

	// DefaultMinInterval spaces requests politely; this is a small
	// university-hosted catalog.
	DefaultMinInterval = time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default page size.
	DefaultMaxResults = 25
)

// subjectNames maps the controlled discipline vocabulary to catalog subject
// terms.
var subjectNames = sources.ExpansionTable{
	sources.DisciplineBiology:         "Biology",
	sources.DisciplineChemistry:       "Chemistry",
	sources.DisciplinePhysics:         "Physics",
	sources.DisciplineMathematics:     "Mathematics",
	sources.DisciplineComputerScience: "Computer Science",
	sources.DisciplineEngineering:     "Engineering",
	sources.DisciplineMedicine:        "Medicine",
	sources.DisciplineEconomics:       "Economics",
	sources.DisciplinePsychology:      "Psychology",
	sources.DisciplineSociology:       "Sociology",
	sources.DisciplineHistory:         "History",
	sources.DisciplineEducation:       "Education",
}

// Config holds configuration for the Open Textbook Library client.
type Config struct {
	// BaseURL is the catalog base URL.
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

// Client implements the sources.Source interface for the Open Textbook
// Library.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new Open Textbook Library client.
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

// Search queries the catalog for textbooks matching the given parameters.
// The catalog holds college-level material only, so a k12 education-level
// filter short-circuits to an empty result without a network call.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	startTime := time.Now()

	if params.EducationLevel == sources.EducationLevelK12 {
		return &sources.SearchResult{
			Documents:      []*domain.Document{},
			Source:         domain.SourceTypeOpenTextbooks,
			SearchDuration: time.Since(startTime),
		}, nil
	}

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
		return nil, domain.NewExternalAPIError("OpenTextbooks", resp.StatusCode, string(body), nil)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	limit := params.Limit
	if limit == 0 {
		limit = c.config.MaxResults
	}

	documents := make([]*domain.Document, 0, len(searchResp.Data))
	for i := range searchResp.Data {
		doc := textbookToDocument(&searchResp.Data[i], c.config.BaseURL)
		if doc == nil {
			continue
		}
		if !params.InYearRange(doc.Year) {
			continue
		}
		documents = append(documents, doc)
		if len(documents) == limit {
			break
		}
	}

	return &sources.SearchResult{
		Documents:      documents,
		TotalResults:   len(searchResp.Data),
		HasMore:        false,
		NextOffset:     params.Offset + len(documents),
		Source:         domain.SourceTypeOpenTextbooks,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves a textbook by its catalog identifier.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/opentextbooks/textbooks/" + id + ".json"

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
		return nil, domain.NewExternalAPIError("OpenTextbooks", resp.StatusCode, string(body), nil)
	}

	var textbook Textbook
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&textbook); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	doc := textbookToDocument(&textbook, c.config.BaseURL)
	if doc == nil {
		return nil, domain.NewNotFoundError("document", id)
	}
	return doc, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeOpenTextbooks
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return "Open Textbook Library"
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
	baseURL.Path = "/opentextbooks/textbooks.json"

	query := url.Values{}
	query.Set("q", params.Query)
	if subj := subjectNames.Expand(params.Discipline); subj != "" {
		query.Set("subject", subj)
	}
	if params.Offset > 0 && params.Limit > 0 {
		query.Set("page", strconv.Itoa((params.Offset/params.Limit)+1))
	}

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// textbookToDocument maps a catalog record onto the canonical document
// shape. The full-text URL is the landing page; the resolver upgrades it.
func textbookToDocument(tb *Textbook, baseURL string) *domain.Document {
	if tb == nil {
		return nil
	}

	title := normalize.CollapseWhitespace(tb.Title)
	if title == "" || tb.ID == 0 {
		return nil
	}

	authors := make([]string, 0, len(tb.Contributors))
	for _, c := range tb.Contributors {
		name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
		if name != "" {
			authors = append(authors, name)
		}
	}

	year := domain.UnknownYear
	if tb.CopyrightYear > 0 {
		year = strconv.Itoa(tb.CopyrightYear)
	}

	subjects := make([]string, 0, len(tb.Subjects))
	for _, s := range tb.Subjects {
		subjects = append(subjects, s.Name)
	}

	var publisher string
	if len(tb.Publishers) > 0 {
		publisher = tb.Publishers[0].Name
	}

	doc := &domain.Document{
		Title:       title,
		Authors:     normalize.Authors(authors),
		Abstract:    normalize.Abstract(tb.Description),
		Year:        year,
		Source:      string(domain.SourceTypeOpenTextbooks),
		FullTextURL: fmt.Sprintf("%s/opentextbooks/textbooks/%d", strings.TrimSuffix(baseURL, "/"), tb.ID),
		License:     tb.License.Name,
		ContentType: domain.ContentTypeBook,
		Publisher:   publisher,
		Language:    tb.Language,
		Subjects:    normalize.Subjects(subjects),
		ISBN:        tb.ISBN13,
	}
	doc.FillDefaults()
	if !doc.HasUsableURL() {
		return nil
	}
	return doc
}
