// Package catalog holds the embedded job postings and their vector index.
// A Catalog is built once at startup and only read afterwards.
package catalog

import (
	"fmt"

	"skillmatch/services/matching/internal/index"
	"skillmatch/services/matching/internal/models"
)

type Catalog struct {
	postings []models.JobPosting
	byTitle  map[string]int
	index    *index.Index
}

// Neighbor is a posting returned by a similarity search.
type Neighbor struct {
	Position int
	Posting  models.JobPosting
	Score    float64
}

// New indexes postings, which must all carry embeddings of equal length.
// When titles collide, lookups resolve to the earliest posting.
func New(postings []models.JobPosting) (*Catalog, error) {
	if len(postings) == 0 {
		return nil, fmt.Errorf("catalog has no postings")
	}

	vectors := make([][]float32, len(postings))
	byTitle := make(map[string]int, len(postings))
	for i, p := range postings {
		vectors[i] = p.Embedding
		key := models.TitleKey(p.Title)
		if _, seen := byTitle[key]; !seen {
			byTitle[key] = i
		}
	}

	ix, err := index.New(len(postings[0].Embedding), vectors)
	if err != nil {
		return nil, fmt.Errorf("building vector index: %w", err)
	}

	return &Catalog{
		postings: postings,
		byTitle:  byTitle,
		index:    ix,
	}, nil
}

func (c *Catalog) Len() int {
	return len(c.postings)
}

func (c *Catalog) Dim() int {
	return c.index.Dim()
}

// Lookup finds the posting whose title equals title, ignoring case and
// surrounding whitespace.
func (c *Catalog) Lookup(title string) (models.JobPosting, bool) {
	i, ok := c.byTitle[models.TitleKey(title)]
	if !ok {
		return models.JobPosting{}, false
	}
	return c.postings[i], true
}

// Nearest returns the k postings most similar to vec.
func (c *Catalog) Nearest(vec []float32, k int) ([]Neighbor, error) {
	hits, err := c.index.Search(vec, k)
	if err != nil {
		return nil, err
	}
	out := make([]Neighbor, len(hits))
	for i, h := range hits {
		out[i] = Neighbor{Position: h.Position, Posting: c.postings[h.Position], Score: h.Score}
	}
	return out, nil
}

// Similarity is the cosine similarity between vec and the posting at the
// given catalog position.
func (c *Catalog) Similarity(vec []float32, position int) (float64, error) {
	if position < 0 || position >= len(c.postings) {
		return 0, fmt.Errorf("position %d out of range", position)
	}
	return index.Cosine(vec, c.index.Vector(position))
}
