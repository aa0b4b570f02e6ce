package catalog

// Character is the normalized, immutable representation of a single catalog
// entity. A refetch never mutates an existing value; it produces a new one
// that replaces the prior value by ID.
type Character struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	Species      string `json:"species"`
	Type         string `json:"type"`
	Gender       string `json:"gender"`
	OriginName   string `json:"originName"`
	OriginURL    string `json:"originUrl"`
	LocationName string `json:"locationName"`
	LocationURL  string `json:"locationUrl"`
	Image        string `json:"image"`
	Created      string `json:"created"`
}
