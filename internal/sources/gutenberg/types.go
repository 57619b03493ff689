package gutenberg

// SearchResponse is the Gutendex /books envelope.
type SearchResponse struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []Book `json:"results"`
}

// Book is one Gutendex book record. Formats maps MIME types to asset URLs.
type Book struct {
	ID        int               `json:"id"`
	Title     string            `json:"title"`
	Authors   []Person          `json:"authors"`
	Subjects  []string          `json:"subjects"`
	Languages []string          `json:"languages"`
	Copyright *bool             `json:"copyright"`
	Formats   map[string]string `json:"formats"`
}

// Person is an author entry with lifespan years.
type Person struct {
	Name      string `json:"name"`
	BirthYear *int   `json:"birth_year"`
	DeathYear *int   `json:"death_year"`
}
