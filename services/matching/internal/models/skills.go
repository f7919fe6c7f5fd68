package models

import "strings"

// SplitSkills splits a comma-separated list into lowercase trimmed tokens,
// dropping empties. Order and duplicates are preserved.
func SplitSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, part := range parts {
		s := strings.ToLower(strings.TrimSpace(part))
		if s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// SkillSet is a set of normalized skill tokens that remembers insertion
// order for presentation.
type SkillSet struct {
	order   []string
	members map[string]struct{}
}

func NewSkillSet(skills ...string) SkillSet {
	s := SkillSet{members: make(map[string]struct{}, len(skills))}
	for _, skill := range skills {
		s.add(skill)
	}
	return s
}

// ParseSkillSet builds a SkillSet from comma-separated text.
func ParseSkillSet(raw string) SkillSet {
	return NewSkillSet(SplitSkills(raw)...)
}

func (s *SkillSet) add(skill string) {
	skill = strings.ToLower(strings.TrimSpace(skill))
	if skill == "" {
		return
	}
	if _, ok := s.members[skill]; ok {
		return
	}
	s.members[skill] = struct{}{}
	s.order = append(s.order, skill)
}

func (s SkillSet) Contains(skill string) bool {
	_, ok := s.members[skill]
	return ok
}

func (s SkillSet) Len() int {
	return len(s.order)
}

// Slice returns the members in insertion order. It is never nil.
func (s SkillSet) Slice() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
