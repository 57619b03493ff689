package opentextbooks

// SearchResponse is the Open Textbook Library textbooks.json envelope.
type SearchResponse struct {
	Data []Textbook `json:"data"`
}

// Textbook is one catalog record.
type Textbook struct {
	ID            int           `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	CopyrightYear int           `json:"copyright_year"`
	ISBN13        string        `json:"isbn13"`
	Language      string        `json:"language"`
	Contributors  []Contributor `json:"contributors"`
	Subjects      []Subject     `json:"subjects"`
	Publishers    []Publisher   `json:"publishers"`
	License       License       `json:"license"`
}

// Contributor is an author entry with split name fields.
type Contributor struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Subject is a catalog classification.
type Subject struct {
	Name string `json:"name"`
}

// Publisher names the issuing press.
type Publisher struct {
	Name string `json:"name"`
}

// License names the book's open license.
type License struct {
	Name string `json:"name"`
}
