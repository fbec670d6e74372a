package domain

// Identifier types reported by the external search API.
const (
	IdentifierISBN13 = "ISBN_13"
	IdentifierISBN10 = "ISBN_10"
)

// Identifier is an industry identifier attached to a search candidate.
type Identifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// SearchCandidate is an ephemeral search result from the external book
// search API. It is never persisted; adding it to the catalog creates a Book.
type SearchCandidate struct {
	ExternalID    string       `json:"external_id"`
	Title         string       `json:"title"`
	Authors       []string     `json:"authors,omitempty"`
	Description   string       `json:"description,omitempty"`
	CoverURL      string       `json:"cover_url,omitempty"`
	Identifiers   []Identifier `json:"identifiers,omitempty"`
	AverageRating float64      `json:"average_rating,omitempty"`
	RatingsCount  int          `json:"ratings_count,omitempty"`
}

// UnknownAuthor is the fallback when the search API reports no authors.
const UnknownAuthor = "Unknown Author"

// PrimaryAuthor returns the first listed author, or UnknownAuthor.
func (c *SearchCandidate) PrimaryAuthor() string {
	if len(c.Authors) == 0 {
		return UnknownAuthor
	}
	return c.Authors[0]
}

// ISBN returns the candidate's ISBN-13 if present, else its ISBN-10,
// else the empty string.
func (c *SearchCandidate) ISBN() string {
	var isbn10 string
	for _, ident := range c.Identifiers {
		switch ident.Type {
		case IdentifierISBN13:
			return ident.Value
		case IdentifierISBN10:
			if isbn10 == "" {
				isbn10 = ident.Value
			}
		}
	}
	return isbn10
}
