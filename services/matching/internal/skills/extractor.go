// Package skills asks a remote language model for the skills named in a
// resume.
package skills

import (
	"context"
	"fmt"

	"skillmatch/common/telemetry"
	"skillmatch/services/matching/internal/models"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("skillmatch/matching/skills")

const promptTemplate = `Extract a list of skills from the following resume text. Return only a comma-separated list of skills.
Resume:
%s`

// Completer sends a prompt to a text model and returns its completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Extractor never fails: remote errors degrade to an empty SkillSet.
type Extractor interface {
	Extract(ctx context.Context, resumeText string) models.SkillSet
}

type modelExtractor struct {
	completer Completer
	logger    *zap.Logger
}

func NewExtractor(completer Completer, logger *zap.Logger) Extractor {
	return &modelExtractor{completer: completer, logger: logger}
}

func Prompt(resumeText string) string {
	return fmt.Sprintf(promptTemplate, resumeText)
}

func (e *modelExtractor) Extract(ctx context.Context, resumeText string) models.SkillSet {
	ctx, span := tracer.Start(ctx, "ExtractSkills")
	defer span.End()

	completion, err := e.completer.Complete(ctx, Prompt(resumeText))
	if err != nil {
		span.RecordError(err)
		e.logger.Error("skill extraction failed", zap.Error(err))
		return models.NewSkillSet()
	}

	skills := models.ParseSkillSet(completion)
	span.SetAttributes(telemetry.Int("skills.count", skills.Len()))
	return skills
}
