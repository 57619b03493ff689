package pubmed

import (
	"context"
	"encoding/xml"
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
	// DefaultBaseURL is the NCBI E-utilities base URL.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultMinInterval keeps under the 3 requests/second allowance
	// without an API key. With a key NCBI allows 10/second.
	DefaultMinInterval = 350 * time.Millisecond

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default page size.
	DefaultMaxResults = 25

	// MaxIDBatch is the largest PMID batch efetch accepts on a GET URL.
	MaxIDBatch = 200

	pmcArticleURL = "https://www.ncbi.nlm.nih.gov/pmc/articles/"
)

// meshKeywords maps the controlled discipline vocabulary to MeSH-flavored
// query clauses.
var meshKeywords = sources.ExpansionTable{
	sources.DisciplineBiology:    "biology[MeSH Terms]",
	sources.DisciplineChemistry:  "chemistry[MeSH Terms]",
	sources.DisciplineMedicine:   "medicine[MeSH Terms]",
	sources.DisciplinePsychology: "psychology[MeSH Terms]",
}

// Config holds configuration for the PubMed client.
type Config struct {
	// BaseURL is the E-utilities base URL.
	BaseURL string

	// APIKey is an optional NCBI API key, passed as a query parameter.
	APIKey string

	// Timeout is the request timeout.
	Timeout time.Duration

	// MinInterval is the minimum spacing between requests. The limiter is
	// shared by the esearch and efetch steps.
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

// Client implements the sources.Source interface for PubMed. Searches run
// the two-step E-utilities protocol: esearch returns ordered PMIDs, efetch
// expands them to article records. Both steps go through one rate-limited
// HTTP client so the repository sees a single paced request stream.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new PubMed client.
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

// Search queries PubMed for articles matching the given parameters.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	startTime := time.Now()

	searchResult, err := c.esearch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("esearch failed: %w", err)
	}

	if len(searchResult.IDList.IDs) == 0 {
		return &sources.SearchResult{
			Documents:      []*domain.Document{},
			TotalResults:   searchResult.Count,
			Source:         domain.SourceTypePubMed,
			SearchDuration: time.Since(startTime),
		}, nil
	}

	articles, err := c.efetch(ctx, searchResult.IDList.IDs)
	if err != nil {
		return nil, fmt.Errorf("efetch failed: %w", err)
	}

	// efetch may reorder records; index by PMID and rebuild in esearch
	// order so relevance ranking survives the second step.
	byPMID := make(map[string]*PubmedArticle, len(articles.Articles))
	for i := range articles.Articles {
		byPMID[articles.Articles[i].MedlineCitation.PMID] = &articles.Articles[i]
	}

	documents := make([]*domain.Document, 0, len(searchResult.IDList.IDs))
	for _, pmid := range searchResult.IDList.IDs {
		article, ok := byPMID[pmid]
		if !ok {
			continue
		}
		if doc := articleToDocument(article); doc != nil {
			documents = append(documents, doc)
		}
	}

	nextOffset := params.Offset + len(searchResult.IDList.IDs)
	return &sources.SearchResult{
		Documents:      documents,
		TotalResults:   searchResult.Count,
		HasMore:        nextOffset < searchResult.Count,
		NextOffset:     nextOffset,
		Source:         domain.SourceTypePubMed,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves an article by PMID.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	articles, err := c.efetch(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("efetch failed: %w", err)
	}
	if len(articles.Articles) == 0 {
		return nil, domain.NewNotFoundError("document", id)
	}

	doc := articleToDocument(&articles.Articles[0])
	if doc == nil {
		return nil, domain.NewNotFoundError("document", id)
	}
	return doc, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypePubMed
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return "PubMed"
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// esearch performs the first protocol step and returns matching PMIDs.
func (c *Client) esearch(ctx context.Context, params sources.SearchParams) (*ESearchResult, error) {
	u, err := url.Parse(c.config.BaseURL + "/esearch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	terms := []string{params.Query}
	if kw := meshKeywords.Expand(params.Discipline); kw != "" {
		terms = append(terms, kw)
	}
	if params.YearStart != 0 || params.YearEnd != 0 {
		from, to := "1000", strconv.Itoa(sources.MaxYear())
		if params.YearStart != 0 {
			from = strconv.Itoa(params.YearStart)
		}
		if params.YearEnd != 0 {
			to = strconv.Itoa(params.YearEnd)
		}
		terms = append(terms, fmt.Sprintf("%s:%s[dp]", from, to))
	}
	// Restrict to records with free full text in PubMed Central.
	terms = append(terms, "pubmed pmc[sb]")

	limit := params.Limit
	if limit == 0 {
		limit = c.config.MaxResults
	}
	if limit > MaxIDBatch {
		limit = MaxIDBatch
	}

	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", strings.Join(terms, " AND "))
	q.Set("retmode", "xml")
	q.Set("retmax", strconv.Itoa(limit))
	q.Set("retstart", strconv.Itoa(params.Offset))
	q.Set("sort", "relevance")
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = q.Encode()

	var result ESearchResult
	if err := c.fetchXML(ctx, u.String(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// efetch performs the second protocol step, expanding PMIDs to records.
func (c *Client) efetch(ctx context.Context, pmids []string) (*PubmedArticleSet, error) {
	if len(pmids) > MaxIDBatch {
		pmids = pmids[:MaxIDBatch]
	}

	u, err := url.Parse(c.config.BaseURL + "/efetch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(pmids, ","))
	q.Set("retmode", "xml")
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = q.Encode()

	var result PubmedArticleSet
	if err := c.fetchXML(ctx, u.String(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) fetchXML(ctx context.Context, fetchURL string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return domain.NewExternalAPIError("PubMed", resp.StatusCode, string(body), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := xml.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// articleToDocument maps a PubMed article onto the canonical document
// shape. Articles without a PMC identifier have no free full text and are
// dropped.
func articleToDocument(article *PubmedArticle) *domain.Document {
	if article == nil {
		return nil
	}

	title := normalize.StripHTML(article.MedlineCitation.Article.Title)
	if title == "" {
		return nil
	}

	var doi, pmcID string
	for _, id := range article.PubmedData.ArticleIDs.IDs {
		switch id.IDType {
		case "doi":
			doi = strings.ToLower(strings.TrimSpace(id.Value))
		case "pmc":
			pmcID = strings.TrimSpace(id.Value)
		}
	}
	if pmcID == "" {
		return nil
	}

	authors := make([]string, 0, len(article.MedlineCitation.Article.AuthorList.Authors))
	for _, a := range article.MedlineCitation.Article.AuthorList.Authors {
		switch {
		case a.CollectiveName != "":
			authors = append(authors, a.CollectiveName)
		case a.LastName != "" && a.ForeName != "":
			authors = append(authors, a.ForeName+" "+a.LastName)
		case a.LastName != "":
			authors = append(authors, a.LastName)
		}
	}

	pubDate := article.MedlineCitation.Article.Journal.JournalIssue.PubDate
	year := pubDate.Year
	if year == "" && pubDate.MedlineDate != "" {
		year = normalize.ExtractYear(pubDate.MedlineDate)
	}
	if year == "" {
		year = article.MedlineCitation.Article.ArticleDate.Year
	}

	var language string
	if langs := article.MedlineCitation.Article.LanguageList; len(langs) > 0 {
		language = langs[0]
	}

	doc := &domain.Document{
		Title:       title,
		Authors:     normalize.Authors(authors),
		Abstract:    normalize.Abstract(strings.Join(article.MedlineCitation.Article.Abstract.Texts, " ")),
		Year:        year,
		Source:      string(domain.SourceTypePubMed),
		FullTextURL: pmcArticleURL + pmcID + "/",
		DOI:         doi,
		Journal:     article.MedlineCitation.Article.Journal.Title,
		ContentType: domain.ContentTypePaper,
		Language:    language,
	}
	doc.FillDefaults()
	return doc
}
