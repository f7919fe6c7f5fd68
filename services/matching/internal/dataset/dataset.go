// Package dataset loads the job posting catalog from its sources.
package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"skillmatch/services/matching/internal/models"

	"github.com/google/uuid"
)

const (
	ColumnTitle       = "job_title"
	ColumnDescription = "job_description"
	ColumnSkills      = "required_skills"
)

var postingNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Source yields the catalog in a stable order.
type Source interface {
	Load(ctx context.Context) ([]models.JobPosting, error)
	Name() string
}

// PostingID derives a deterministic identifier from a posting's position
// and content.
func PostingID(position int, title, description, skills string) string {
	key := fmt.Sprintf("%d|%s|%s|%s", position, title, description, skills)
	return uuid.NewSHA1(postingNamespace, []byte(key)).String()
}

// Fingerprint hashes the ordered catalog content. Two datasets with the same
// fingerprint embed to the same vectors.
func Fingerprint(postings []models.JobPosting) string {
	h := sha256.New()
	for _, p := range postings {
		h.Write([]byte(p.Title))
		h.Write([]byte{0x1f})
		h.Write([]byte(p.Description))
		h.Write([]byte{0x1f})
		h.Write([]byte(p.RawSkills))
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func newPosting(position int, title, description, skills string) models.JobPosting {
	title = strings.TrimSpace(title)
	return models.NewJobPosting(PostingID(position, title, description, skills), title, description, skills)
}
