package doaj

// SearchResponse is the DOAJ article search envelope.
type SearchResponse struct {
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
	Results  []Article `json:"results"`
}

// Article wraps one DOAJ result; the bibliographic payload sits under
// bibjson.
type Article struct {
	ID      string  `json:"id"`
	BibJSON BibJSON `json:"bibjson"`
}

// BibJSON is the DOAJ bibliographic record.
type BibJSON struct {
	Title      string       `json:"title"`
	Abstract   string       `json:"abstract"`
	Year       string       `json:"year"`
	Authors    []Author     `json:"author"`
	Identifier []Identifier `json:"identifier"`
	Links      []Link       `json:"link"`
	Journal    Journal      `json:"journal"`
	Subjects   []Subject    `json:"subject"`
	Keywords   []string     `json:"keywords"`
}

// Author is one contributor.
type Author struct {
	Name string `json:"name"`
}

// Identifier is a typed identifier (doi, pissn, eissn).
type Identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Link is a typed outbound URL (fulltext, homepage).
type Link struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	Content string `json:"content_type"`
}

// Journal carries the venue metadata DOAJ is rich in.
type Journal struct {
	Title     string    `json:"title"`
	Publisher string    `json:"publisher"`
	Language  []string  `json:"language"`
	License   []License `json:"license"`
}

// License names the journal's license.
type License struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Subject is a classification entry.
type Subject struct {
	Term string `json:"term"`
}
