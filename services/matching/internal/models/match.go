package models

type SkillMatch struct {
	Skill   string `json:"skill"`
	Matched bool   `json:"matched"`
}

// TitleMatch is the exact-title scoring result.
type TitleMatch struct {
	JobTitle     string
	JobSkills    []string
	ResumeSkills []string
	SkillMatches []SkillMatch
	Similarity   float64
}

// NearestMatch is the nearest-posting scoring result.
type NearestMatch struct {
	DreamJobTitle  string
	MatchedTitle   string
	RequiredSkills []string
	MatchedSkills  []string
	Ratio          float64
	JobDescription string
}
