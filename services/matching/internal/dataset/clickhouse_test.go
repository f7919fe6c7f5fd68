package dataset

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"skillmatch/services/matching/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

type catalogRow struct {
	id          uuid.UUID
	position    uint32
	title       string
	description string
	skills      string
}

// memoryTable stands in for a job_catalog table without a merge engine, so
// every appended row stays visible until truncated.
type memoryTable struct {
	rows      []catalogRow
	truncates int
	execErr   error
}

func (m *memoryTable) Exec(_ context.Context, query string, _ ...any) error {
	if m.execErr != nil {
		return m.execErr
	}
	if strings.HasPrefix(query, "TRUNCATE") {
		m.rows = nil
		m.truncates++
	}
	return nil
}

func (m *memoryTable) PrepareBatch(context.Context, string, ...driver.PrepareBatchOption) (driver.Batch, error) {
	return &memoryBatch{table: m}, nil
}

func (m *memoryTable) Query(context.Context, string, ...any) (driver.Rows, error) {
	rows := append([]catalogRow{}, m.rows...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].position < rows[j].position })
	return &memoryRows{rows: rows, next: -1}, nil
}

type memoryBatch struct {
	driver.Batch
	table   *memoryTable
	pending []catalogRow
}

func (b *memoryBatch) Append(v ...any) error {
	if len(v) != 6 {
		return fmt.Errorf("got %d columns, want 6", len(v))
	}
	b.pending = append(b.pending, catalogRow{
		id:          v[0].(uuid.UUID),
		position:    v[1].(uint32),
		title:       v[2].(string),
		description: v[3].(string),
		skills:      v[4].(string),
	})
	return nil
}

func (b *memoryBatch) Abort() error {
	b.pending = nil
	return nil
}

func (b *memoryBatch) Send() error {
	b.table.rows = append(b.table.rows, b.pending...)
	b.pending = nil
	return nil
}

type memoryRows struct {
	driver.Rows
	rows []catalogRow
	next int
}

func (r *memoryRows) Next() bool {
	r.next++
	return r.next < len(r.rows)
}

func (r *memoryRows) Scan(dest ...any) error {
	row := r.rows[r.next]
	*dest[0].(*string) = row.title
	*dest[1].(*string) = row.description
	*dest[2].(*string) = row.skills
	return nil
}

func (r *memoryRows) Err() error   { return nil }
func (r *memoryRows) Close() error { return nil }

func readPostings(t *testing.T, csv string) []models.JobPosting {
	t.Helper()
	postings, err := ReadCSV(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	return postings
}

func titles(postings []models.JobPosting) []string {
	out := make([]string, len(postings))
	for i, p := range postings {
		out[i] = p.Title
	}
	return out
}

func TestClickHouseSourceRoundTrip(t *testing.T) {
	table := &memoryTable{}
	source := NewClickHouseSource(table, zaptest.NewLogger(t))
	ctx := context.Background()

	postings := readPostings(t, sampleCSV)
	if err := source.Import(ctx, postings); err != nil {
		t.Fatalf("Import() error: %v", err)
	}

	loaded, err := source.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := titles(loaded), titles(postings); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("titles = %v, want %v", got, want)
	}
	for i := range postings {
		if loaded[i].ID != postings[i].ID {
			t.Errorf("posting %d id = %s, want %s", i, loaded[i].ID, postings[i].ID)
		}
	}
	if Fingerprint(loaded) != Fingerprint(postings) {
		t.Error("loaded catalog fingerprint differs from the imported dataset")
	}
}

func TestClickHouseSourceReimportReplacesCatalog(t *testing.T) {
	table := &memoryTable{}
	source := NewClickHouseSource(table, zaptest.NewLogger(t))
	ctx := context.Background()

	first := readPostings(t, "job_title,job_description,required_skills\nA,first,go\nB,second,sql\n")
	if err := source.Import(ctx, first); err != nil {
		t.Fatalf("Import() error: %v", err)
	}

	edited := readPostings(t, "job_title,job_description,required_skills\nA,first,go\nB,rewritten,sql\n")
	if err := source.Import(ctx, edited); err != nil {
		t.Fatalf("Import() error: %v", err)
	}

	loaded, err := source.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d postings after re-import, want 2", len(loaded))
	}
	if loaded[1].Description != "rewritten" {
		t.Errorf("second posting description = %q, want rewritten", loaded[1].Description)
	}
	if table.truncates != 2 {
		t.Errorf("truncates = %d, want 2", table.truncates)
	}
}

func TestClickHouseSourceImportStopsWhenTruncateFails(t *testing.T) {
	table := &memoryTable{execErr: fmt.Errorf("connection refused")}
	source := NewClickHouseSource(table, zaptest.NewLogger(t))

	err := source.Import(context.Background(), readPostings(t, sampleCSV))
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(table.rows) != 0 {
		t.Errorf("rows were inserted despite the failed truncate: %d", len(table.rows))
	}
}

func TestClickHouseSourceImportRejectsBadIDBeforeClearing(t *testing.T) {
	table := &memoryTable{}
	source := NewClickHouseSource(table, zaptest.NewLogger(t))
	ctx := context.Background()

	if err := source.Import(ctx, readPostings(t, sampleCSV)); err != nil {
		t.Fatalf("Import() error: %v", err)
	}

	posting := models.NewJobPosting("not-a-uuid", "A", "", "go")
	if err := source.Import(ctx, []models.JobPosting{posting}); err == nil {
		t.Fatal("expected an error for a non-UUID posting id")
	}
	if table.truncates != 1 || len(table.rows) != 3 {
		t.Errorf("truncates = %d, rows = %d; want the earlier import untouched", table.truncates, len(table.rows))
	}
}
