package doab

// Item is one DOAB REST search hit. Bibliographic fields arrive as a flat
// key/value metadata list in DSpace style.
type Item struct {
	Handle   string     `json:"handle"`
	Name     string     `json:"name"`
	Metadata []Metadata `json:"metadata"`
}

// Metadata is one key/value pair on an item.
type Metadata struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
