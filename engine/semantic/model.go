package semantic

import "github.com/lumenplaces/search/engine/search"

// PlaceRecord is a single place vector to store in Qdrant.
type PlaceRecord struct {
	ID        string // UUID
	Embedding []float32
	Metadata  search.Metadata
}

// payload keys shared by Upsert and Query.
const (
	keyTitle    = "title"
	keyText     = "text"
	keyTags     = "tags"
	keyAddress  = "address"
	keyImageURL = "image_url"
	keyURL      = "url"
)
