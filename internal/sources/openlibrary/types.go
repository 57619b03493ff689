package openlibrary

// SearchResponse is the Open Library search.json envelope.
type SearchResponse struct {
	NumFound int   `json:"numFound"`
	Start    int   `json:"start"`
	Docs     []Doc `json:"docs"`
}

// Doc is one search hit. Open Library is list-happy: most fields arrive as
// arrays even when conceptually scalar.
type Doc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	EbookAccess      string   `json:"ebook_access"`
	IA               []string `json:"ia"`
	Language         []string `json:"language"`
	Subject          []string `json:"subject"`
	Publisher        []string `json:"publisher"`
	ISBN             []string `json:"isbn"`
	NumberOfPages    int      `json:"number_of_pages_median"`
}
