package api

import "skillmatch/services/matching/internal/models"

type MatchRequest struct {
	ResumeText string `json:"resume_text"`
	JobTitle   string `json:"job_title"`
}

type SearchResponse struct {
	JobTitle     string              `json:"job_title"`
	JobSkills    []string            `json:"job_skills"`
	ResumeSkills []string            `json:"resume_skills"`
	SkillMatches []models.SkillMatch `json:"skill_matches"`
	Similarity   float64             `json:"similarity"`
}

type NotFoundResponse struct {
	Error        string   `json:"error"`
	ResumeSkills []string `json:"resume_skills"`
}

type AnalyzeResponse struct {
	DreamJobTitle  string   `json:"dream_job_title"`
	RequiredSkills []string `json:"required_skills"`
	MatchedSkills  []string `json:"matched_skills"`
	MatchScore     string   `json:"match_score"`
	JobDescription string   `json:"job_description"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Postings int    `json:"postings"`
}
