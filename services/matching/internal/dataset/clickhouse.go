package dataset

import (
	"context"
	"fmt"
	"time"

	"skillmatch/common/telemetry"
	"skillmatch/services/matching/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("skillmatch/matching/dataset")

// Conn is the part of a ClickHouse connection the catalog table needs.
type Conn interface {
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	Exec(ctx context.Context, query string, args ...any) error
	PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error)
}

// ClickHouseSource reads and writes the job_catalog table.
type ClickHouseSource struct {
	conn   Conn
	logger *zap.Logger
}

func NewClickHouseSource(conn Conn, logger *zap.Logger) *ClickHouseSource {
	return &ClickHouseSource{conn: conn, logger: logger}
}

func (s *ClickHouseSource) Name() string {
	return "clickhouse:job_catalog"
}

func (s *ClickHouseSource) Load(ctx context.Context) ([]models.JobPosting, error) {
	ctx, span := tracer.Start(ctx, "ClickHouseSource.Load")
	defer span.End()

	rows, err := s.conn.Query(ctx, `
		SELECT job_title, job_description, required_skills
		FROM job_catalog FINAL
		ORDER BY position
	`)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("querying job_catalog: %w", err)
	}
	defer rows.Close()

	var postings []models.JobPosting
	for rows.Next() {
		var title, description, skills string
		if err := rows.Scan(&title, &description, &skills); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("scanning job_catalog row: %w", err)
		}
		postings = append(postings, newPosting(len(postings), title, description, skills))
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("iterating job_catalog: %w", err)
	}

	span.SetAttributes(telemetry.Int("catalog.postings", len(postings)))
	s.logger.Info("loaded postings from clickhouse", zap.Int("postings", len(postings)))

	return postings, nil
}

// Import replaces the contents of job_catalog with postings, keeping their
// order in the position column.
func (s *ClickHouseSource) Import(ctx context.Context, postings []models.JobPosting) error {
	ctx, span := tracer.Start(ctx, "ClickHouseSource.Import")
	defer span.End()

	ids := make([]uuid.UUID, len(postings))
	for i, p := range postings {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return fmt.Errorf("posting %d has an invalid id %q: %w", i, p.ID, err)
		}
		ids[i] = id
	}

	// Posting IDs change with content and position, so rows from an earlier
	// import would never be collapsed by the table engine.
	if err := s.conn.Exec(ctx, "TRUNCATE TABLE IF EXISTS job_catalog"); err != nil {
		span.RecordError(err)
		return fmt.Errorf("clearing job_catalog: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO job_catalog")
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("preparing job_catalog batch: %w", err)
	}

	now := time.Now().UTC()
	for i, p := range postings {
		if err := batch.Append(ids[i], uint32(i), p.Title, p.Description, p.RawSkills, now); err != nil {
			span.RecordError(err)
			_ = batch.Abort()
			return fmt.Errorf("appending posting %s: %w", p.ID, err)
		}
	}

	if err := batch.Send(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("sending job_catalog batch: %w", err)
	}

	span.SetAttributes(telemetry.Int("catalog.postings", len(postings)))
	s.logger.Info("imported postings into clickhouse", zap.Int("postings", len(postings)))

	return nil
}
