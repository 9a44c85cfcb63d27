package search

// TopK is the number of neighbours requested from the index on every search.
const TopK = 8

// Metadata is the set of place fields stored alongside each vector.
// Absent keys decode to their zero value.
type Metadata struct {
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Tags     []string `json:"tags"`
	Address  string   `json:"address"`
	ImageURL string   `json:"image_url"`
	URL      string   `json:"url"`
}

// Match is a single nearest-neighbour hit returned by an Index.
type Match struct {
	ID       string
	Score    float32
	Metadata Metadata
}

// Result is the client-facing shape of a Match.
type Result struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Address     string   `json:"address"`
	ImageURL    string   `json:"image_url"`
	URL         string   `json:"url"`
	Score       float32  `json:"score"`
}

// NewResult maps a match to a result. Tags is never nil so it encodes as [].
func NewResult(m Match) Result {
	tags := m.Metadata.Tags
	if tags == nil {
		tags = []string{}
	}
	return Result{
		Title:       m.Metadata.Title,
		Description: m.Metadata.Text,
		Tags:        tags,
		Address:     m.Metadata.Address,
		ImageURL:    m.Metadata.ImageURL,
		URL:         m.Metadata.URL,
		Score:       m.Score,
	}
}
