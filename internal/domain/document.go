package domain

import (
	"net/url"
	"strings"
)

// ContentType classifies a document as a paper or a book.
type ContentType string

// Content type values.
const (
	ContentTypePaper ContentType = "paper"
	ContentTypeBook  ContentType = "book"
)

// SourceType identifies an external scholarly repository.
type SourceType string

// Source type identifiers for all supported repositories.
const (
	SourceTypeOpenAlex        SourceType = "openalex"
	SourceTypeSemanticScholar SourceType = "semantic_scholar"
	SourceTypeArXiv           SourceType = "arxiv"
	SourceTypePubMed          SourceType = "pubmed"
	SourceTypeCORE            SourceType = "core"
	SourceTypeDOAJ            SourceType = "doaj"
	SourceTypeOpenLibrary     SourceType = "openlibrary"
	SourceTypeGutenberg       SourceType = "gutenberg"
	SourceTypeOpenTextbooks   SourceType = "opentextbooks"
	SourceTypeDOAB            SourceType = "doab"
)

// ParseSourceType maps an identifier string to a known SourceType.
func ParseSourceType(s string) (SourceType, bool) {
	st := SourceType(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case SourceTypeOpenAlex, SourceTypeSemanticScholar, SourceTypeArXiv,
		SourceTypePubMed, SourceTypeCORE, SourceTypeDOAJ,
		SourceTypeOpenLibrary, SourceTypeGutenberg,
		SourceTypeOpenTextbooks, SourceTypeDOAB:
		return st, true
	}
	return "", false
}

// Placeholder values used when a source omits a field. Year stays a string
// end to end because several repositories report non-numeric placeholders;
// parsing it as an int downstream invites cross-type comparison bugs.
const (
	PlaceholderAuthor   = "Unknown"
	PlaceholderAbstract = "No abstract available."
	UnknownYear         = "Unknown"
)

// Document is the canonical representation of a scholarly work, exchanged
// uniformly between source clients, the open-access validator, the full-text
// resolver and the cache. A Document is never constructed without Title and
// Authors populated (possibly with placeholders).
type Document struct {
	Title           string      `json:"title"`
	Authors         []string    `json:"authors"`
	Abstract        string      `json:"abstract"`
	Year            string      `json:"year"`
	Source          string      `json:"source"`
	FullTextURL     string      `json:"full_text_url,omitempty"`
	DOI             string      `json:"doi,omitempty"`
	Journal         string      `json:"journal,omitempty"`
	License         string      `json:"license,omitempty"`
	CitationCount   int         `json:"citation_count,omitempty"`
	ContentType     ContentType `json:"content_type"`
	Publisher       string      `json:"publisher,omitempty"`
	Language        string      `json:"language,omitempty"`
	Subjects        []string    `json:"subjects,omitempty"`
	PageCount       int         `json:"page_count,omitempty"`
	ISBN            string      `json:"isbn,omitempty"`
	DownloadFormats []string    `json:"download_formats,omitempty"`
}

// FillDefaults enforces the canonical invariants on optional fields:
// Authors is never empty, Abstract and Year always carry a value.
// Clients call this after mapping a raw record and before returning it.
func (d *Document) FillDefaults() {
	if len(d.Authors) == 0 {
		d.Authors = []string{PlaceholderAuthor}
	}
	if strings.TrimSpace(d.Abstract) == "" {
		d.Abstract = PlaceholderAbstract
	}
	if strings.TrimSpace(d.Year) == "" {
		d.Year = UnknownYear
	}
	if d.ContentType == "" {
		d.ContentType = ContentTypePaper
	}
}

// HasUsableURL reports whether the document carries an absolute http or
// https full-text URL. Documents without one are rejected downstream.
func (d *Document) HasUsableURL() bool {
	return IsAbsoluteURL(d.FullTextURL)
}

// IsAbsoluteURL reports whether s parses as an absolute http/https URL
// with a non-empty host.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
