// Package embedcache persists the embedded catalog as a single parquet
// file so restarts skip the remote embedding pass.
package embedcache

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"skillmatch/services/matching/internal/models"

	"github.com/gofrs/flock"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

type row struct {
	ID                 string    `parquet:"id"`
	JobTitle           string    `parquet:"job_title"`
	JobDescription     string    `parquet:"job_description"`
	RequiredSkills     string    `parquet:"required_skills"`
	DatasetFingerprint string    `parquet:"dataset_fingerprint"`
	Embedding          []float32 `parquet:"embedding,list"`
}

// Snapshot is the decoded cache artifact. Postings carry their embeddings
// and keep the artifact's row order.
type Snapshot struct {
	Postings    []models.JobPosting
	Fingerprint string
}

// Matches reports whether the snapshot was produced from a dataset with the
// given fingerprint and size.
func (s *Snapshot) Matches(fingerprint string, rows int) bool {
	return s.Fingerprint == fingerprint && len(s.Postings) == rows
}

// Dim is the shared embedding length, or 0 for an empty snapshot.
func (s *Snapshot) Dim() int {
	if len(s.Postings) == 0 {
		return 0
	}
	return len(s.Postings[0].Embedding)
}

type Store struct {
	path   string
	logger *zap.Logger
}

func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the artifact. A missing file yields a nil snapshot and no
// error.
func (s *Store) Load() (*Snapshot, error) {
	rows, err := parquet.ReadFile[row](s.path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading embedding cache %s: %w", s.path, err)
	}

	snap := &Snapshot{Postings: make([]models.JobPosting, len(rows))}
	for i, r := range rows {
		if len(r.Embedding) == 0 {
			return nil, fmt.Errorf("embedding cache %s: row %d has no embedding", s.path, i)
		}
		if i > 0 && len(r.Embedding) != len(rows[0].Embedding) {
			return nil, fmt.Errorf("embedding cache %s: row %d has %d dimensions, want %d",
				s.path, i, len(r.Embedding), len(rows[0].Embedding))
		}
		if i == 0 {
			snap.Fingerprint = r.DatasetFingerprint
		}
		snap.Postings[i] = models.NewJobPosting(r.ID, r.JobTitle, r.JobDescription, r.RequiredSkills).
			WithEmbedding(r.Embedding)
	}

	s.logger.Info("loaded embedding cache",
		zap.String("path", s.path),
		zap.Int("postings", len(rows)))

	return snap, nil
}

// Save writes every posting and its embedding to a temporary file next to
// the artifact and renames it into place.
func (s *Store) Save(postings []models.JobPosting, fingerprint string) error {
	rows := make([]row, len(postings))
	for i, p := range postings {
		if len(p.Embedding) == 0 {
			return fmt.Errorf("posting %d (%s) has no embedding", i, p.ID)
		}
		rows[i] = row{
			ID:                 p.ID,
			JobTitle:           p.Title,
			JobDescription:     p.Description,
			RequiredSkills:     p.RawSkills,
			DatasetFingerprint: fingerprint,
			Embedding:          p.Embedding,
		}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := parquet.Write(tmp, rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing embedding cache: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing embedding cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing embedding cache: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing embedding cache: %w", err)
	}

	s.logger.Info("saved embedding cache",
		zap.String("path", s.path),
		zap.Int("postings", len(rows)))

	return nil
}

// Lock takes an exclusive advisory lock guarding cache builds. The returned
// function releases it.
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	fl := flock.New(s.path + ".lock")
	locked, err := fl.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("locking embedding cache: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("locking embedding cache: %w", ctx.Err())
	}
	return fl.Unlock, nil
}
