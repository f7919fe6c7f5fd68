// Package scorer compares resume skills with a posting's required skills.
// Both modes are pure functions of their inputs.
package scorer

import (
	"fmt"

	"skillmatch/services/matching/internal/models"
)

// ExactTitle flags each required skill of posting that appears in the
// extracted resume skills. Similarity is matched/max(1, required).
func ExactTitle(requestedTitle string, posting models.JobPosting, resumeSkills models.SkillSet) models.TitleMatch {
	jobSkills := append([]string{}, posting.RequiredSkills...)
	matches := make([]models.SkillMatch, len(jobSkills))
	matched := 0
	for i, skill := range jobSkills {
		ok := resumeSkills.Contains(skill)
		if ok {
			matched++
		}
		matches[i] = models.SkillMatch{Skill: skill, Matched: ok}
	}

	return models.TitleMatch{
		JobTitle:     requestedTitle,
		JobSkills:    jobSkills,
		ResumeSkills: resumeSkills.Slice(),
		SkillMatches: matches,
		Similarity:   float64(matched) / float64(max(1, len(matches))),
	}
}

// Nearest splits the raw resume text on commas and intersects it with the
// posting's required skill set. The ratio is 0 when the posting lists no
// skills.
func Nearest(dreamTitle, resumeText string, posting models.JobPosting) models.NearestMatch {
	required := models.NewSkillSet(posting.RequiredSkills...)
	resume := models.ParseSkillSet(resumeText)

	matched := []string{}
	for _, skill := range required.Slice() {
		if resume.Contains(skill) {
			matched = append(matched, skill)
		}
	}

	var ratio float64
	if required.Len() > 0 {
		ratio = float64(len(matched)) / float64(required.Len())
	}

	return models.NearestMatch{
		DreamJobTitle:  dreamTitle,
		MatchedTitle:   posting.Title,
		RequiredSkills: append([]string{}, posting.RequiredSkills...),
		MatchedSkills:  matched,
		Ratio:          ratio,
		JobDescription: posting.Description,
	}
}

// Percent renders a ratio as a percentage with two decimals, e.g. "66.67%".
func Percent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}
