package dataset

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"skillmatch/services/matching/internal/models"
)

// CSVSource reads postings from a header-led CSV file. Missing columns or
// short rows default to empty strings.
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

func (s *CSVSource) Load(ctx context.Context) ([]models.JobPosting, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	return ReadCSV(ctx, f)
}

// ReadCSV parses postings from r.
func ReadCSV(ctx context.Context, r io.Reader) ([]models.JobPosting, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dataset is empty")
		}
		return nil, fmt.Errorf("reading dataset header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := columns[ColumnTitle]; !ok {
		return nil, fmt.Errorf("dataset has no %s column", ColumnTitle)
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var postings []models.JobPosting
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading dataset row %d: %w", len(postings)+1, err)
		}

		postings = append(postings, newPosting(len(postings),
			field(record, ColumnTitle),
			field(record, ColumnDescription),
			field(record, ColumnSkills)))
	}

	return postings, nil
}
