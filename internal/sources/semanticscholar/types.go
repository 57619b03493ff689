package semanticscholar

// SearchResponse is the /graph/v1/paper/search envelope.
type SearchResponse struct {
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Next   int     `json:"next"`
	Data   []Paper `json:"data"`
}

// Paper is a Semantic Scholar paper record.
type Paper struct {
	PaperID       string         `json:"paperId"`
	Title         string         `json:"title"`
	Abstract      string         `json:"abstract"`
	Year          int            `json:"year"`
	CitationCount int            `json:"citationCount"`
	Venue         string         `json:"venue"`
	ExternalIDs   *ExternalIDs   `json:"externalIds"`
	OpenAccessPdf *OpenAccessPdf `json:"openAccessPdf"`
	IsOpenAccess  bool           `json:"isOpenAccess"`
	Authors       []Author       `json:"authors"`
	FieldsOfStudy []string       `json:"fieldsOfStudy"`
}

// ExternalIDs carries cross-registry identifiers.
type ExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

// OpenAccessPdf points at the free full text when one is known.
type OpenAccessPdf struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

// Author is a paper contributor.
type Author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}
