// Package pipeline answers match requests against the catalog.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"skillmatch/common/telemetry"
	"skillmatch/services/matching/internal/catalog"
	"skillmatch/services/matching/internal/errors"
	"skillmatch/services/matching/internal/events"
	"skillmatch/services/matching/internal/models"
	"skillmatch/services/matching/internal/scorer"
	"skillmatch/services/matching/internal/skills"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("skillmatch/matching/pipeline")

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type Pipeline struct {
	catalog   *catalog.Catalog
	embedder  QueryEmbedder
	extractor skills.Extractor
	publisher events.Publisher
	logger    *zap.Logger
}

func New(cat *catalog.Catalog, embedder QueryEmbedder, extractor skills.Extractor, publisher events.Publisher, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		catalog:   cat,
		embedder:  embedder,
		extractor: extractor,
		publisher: publisher,
		logger:    logger,
	}
}

func (p *Pipeline) CatalogSize() int {
	return p.catalog.Len()
}

// Search scores the resume against the posting titled jobTitle. When no
// posting has that title the result still carries the extracted resume
// skills and the error is a JOB_NOT_FOUND DomainError.
func (p *Pipeline) Search(ctx context.Context, resumeText, jobTitle string) (models.TitleMatch, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()

	span.SetAttributes(telemetry.String("match.job_title", jobTitle))

	resumeSkills := p.extractor.Extract(ctx, resumeText)

	posting, ok := p.catalog.Lookup(jobTitle)
	if !ok {
		span.SetAttributes(telemetry.Bool("match.found", false))
		p.logger.Info("job title not found", zap.String("job_title", jobTitle))
		return models.TitleMatch{
			JobTitle:     jobTitle,
			ResumeSkills: resumeSkills.Slice(),
		}, errors.JobNotFound(jobTitle)
	}

	result := scorer.ExactTitle(jobTitle, posting, resumeSkills)
	matched := 0
	for _, m := range result.SkillMatches {
		if m.Matched {
			matched++
		}
	}

	span.SetAttributes(
		telemetry.Bool("match.found", true),
		telemetry.Float64("match.similarity", result.Similarity),
	)
	p.logger.Info("exact title match",
		zap.String("job_title", posting.Title),
		zap.Int("resume_skills", resumeSkills.Len()),
		zap.Int("matched_skills", matched),
		zap.Float64("similarity", result.Similarity))

	p.publish(ctx, events.MatchEvent{
		Mode:          events.ModeExactTitle,
		RequestedJob:  jobTitle,
		MatchedJob:    posting.Title,
		MatchedSkills: matched,
		TotalSkills:   len(result.SkillMatches),
		Score:         result.Similarity,
	})

	return result, nil
}

// Analyze finds the posting nearest to the dream job title and scores the
// comma-separated resume text against it.
func (p *Pipeline) Analyze(ctx context.Context, resumeText, jobTitle string) (models.NearestMatch, error) {
	ctx, span := tracer.Start(ctx, "Analyze")
	defer span.End()

	span.SetAttributes(telemetry.String("match.job_title", jobTitle))

	combinedVec, err := p.embedder.EmbedQuery(ctx, CombinedText(resumeText, jobTitle))
	if err != nil {
		span.RecordError(err)
		return models.NearestMatch{}, err
	}
	titleVec, err := p.embedder.EmbedQuery(ctx, jobTitle)
	if err != nil {
		span.RecordError(err)
		return models.NearestMatch{}, err
	}

	neighbors, err := p.catalog.Nearest(titleVec, 1)
	if err != nil {
		span.RecordError(err)
		return models.NearestMatch{}, errors.Internal("searching catalog", err)
	}
	if len(neighbors) == 0 {
		return models.NearestMatch{}, errors.Internal("catalog returned no neighbours", nil)
	}
	nearest := neighbors[0]

	result := scorer.Nearest(jobTitle, resumeText, nearest.Posting)

	fit, err := p.catalog.Similarity(combinedVec, nearest.Position)
	if err != nil {
		p.logger.Warn("resume fit unavailable", zap.Error(err))
	}

	span.SetAttributes(
		telemetry.String("match.matched_title", nearest.Posting.Title),
		telemetry.Float64("match.title_score", nearest.Score),
		telemetry.Float64("match.ratio", result.Ratio),
	)
	p.logger.Info("nearest title match",
		zap.String("dream_job_title", jobTitle),
		zap.String("matched_title", nearest.Posting.Title),
		zap.Float64("title_score", nearest.Score),
		zap.Float64("resume_fit", fit),
		zap.Float64("ratio", result.Ratio))

	p.publish(ctx, events.MatchEvent{
		Mode:          events.ModeNearest,
		RequestedJob:  jobTitle,
		MatchedJob:    nearest.Posting.Title,
		MatchedSkills: len(result.MatchedSkills),
		TotalSkills:   len(result.RequiredSkills),
		Score:         result.Ratio,
		ResumeFit:     fit,
	})

	return result, nil
}

// CombinedText is the text embedded to place a resume next to a target
// role.
func CombinedText(resumeText, jobTitle string) string {
	return fmt.Sprintf("%s -- %s", jobTitle, resumeText)
}

func (p *Pipeline) publish(ctx context.Context, event events.MatchEvent) {
	event.RequestID = RequestID(ctx)
	event.CompletedAt = time.Now().UTC()
	if err := p.publisher.PublishMatch(ctx, event); err != nil {
		p.logger.Warn("failed to publish match event", zap.Error(err))
	}
}
