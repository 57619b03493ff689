package openalex

// SearchResponse is the OpenAlex /works list envelope.
type SearchResponse struct {
	Meta    Meta   `json:"meta"`
	Results []Work `json:"results"`
}

// Meta carries result counts and pagination info.
type Meta struct {
	Count   int `json:"count"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Work is a single OpenAlex work record.
type Work struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	PublicationYear       int              `json:"publication_year"`
	PublicationDate       string           `json:"publication_date"`
	Language              string           `json:"language"`
	Type                  string           `json:"type"`
	CitedByCount          int              `json:"cited_by_count"`
	Authorships           []Authorship     `json:"authorships"`
	PrimaryLocation       *Location        `json:"primary_location"`
	BestOALocation        *Location        `json:"best_oa_location"`
	OpenAccess            *OpenAccess      `json:"open_access"`
	Concepts              []Concept        `json:"concepts"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

// Authorship nests the author object inside a contribution record.
type Authorship struct {
	Author Author `json:"author"`
}

// Author is the display form of a contributor.
type Author struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Location describes where a version of the work is hosted.
type Location struct {
	IsOA       bool            `json:"is_oa"`
	LandingURL string          `json:"landing_page_url"`
	PDFURL     string          `json:"pdf_url"`
	License    string          `json:"license"`
	Source     *LocationSource `json:"source"`
}

// LocationSource names the hosting venue.
type LocationSource struct {
	DisplayName string `json:"display_name"`
}

// OpenAccess is the work-level open access summary.
type OpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

// Concept is a subject tag assigned to the work.
type Concept struct {
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}
