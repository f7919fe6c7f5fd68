package models

import (
	"fmt"
	"strings"
)

// JobPosting is one catalog entry. Postings are immutable once their
// embedding is attached.
type JobPosting struct {
	ID             string
	Title          string
	Description    string
	RawSkills      string
	RequiredSkills []string
	Embedding      []float32
}

// NewJobPosting builds a posting from raw dataset fields, deriving the
// required skill list from the comma-separated raw string.
func NewJobPosting(id, title, description, rawSkills string) JobPosting {
	return JobPosting{
		ID:             id,
		Title:          title,
		Description:    description,
		RawSkills:      rawSkills,
		RequiredSkills: SplitSkills(rawSkills),
	}
}

// EmbeddingText is the text embedded for the posting.
func (p JobPosting) EmbeddingText() string {
	return fmt.Sprintf("%s -- %s -- Skills: %s", p.Title, p.Description, p.RawSkills)
}

// TitleKey normalizes a title for exact lookup.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// WithEmbedding returns a copy of p carrying vec.
func (p JobPosting) WithEmbedding(vec []float32) JobPosting {
	p.Embedding = vec
	return p
}
