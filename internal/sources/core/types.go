package core

// SearchResponse is the CORE v3 /search/works envelope.
type SearchResponse struct {
	TotalHits int    `json:"totalHits"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	Results   []Work `json:"results"`
}

// Work is one CORE work record.
type Work struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Abstract      string    `json:"abstract"`
	YearPublished int       `json:"yearPublished"`
	PublishedDate string    `json:"publishedDate"`
	DOI           string    `json:"doi"`
	DownloadURL   string    `json:"downloadUrl"`
	Publisher     string    `json:"publisher"`
	Language      *Language `json:"language"`
	Authors       []Author  `json:"authors"`
	FieldOfStudy  string    `json:"fieldOfStudy"`
	CitationCount int       `json:"citationCount"`
	Links         []Link    `json:"links"`
}

// Author is one contributor.
type Author struct {
	Name string `json:"name"`
}

// Language names the record's language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Link is a typed outbound URL on the record.
type Link struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}
