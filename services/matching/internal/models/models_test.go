package models

import (
	"reflect"
	"testing"
)

func TestSplitSkills(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"sql,python,excel", []string{"sql", "python", "excel"}},
		{" SQL , Python,, ,Excel ", []string{"sql", "python", "excel"}},
		{"go,go", []string{"go", "go"}},
		{"", []string{}},
		{" , ,", []string{}},
	}

	for _, tt := range tests {
		if got := SplitSkills(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitSkills(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestSkillSet(t *testing.T) {
	s := NewSkillSet("Python", "excel", "python", "", "  ")
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if !s.Contains("python") || !s.Contains("excel") {
		t.Error("expected normalized members")
	}
	if s.Contains("") {
		t.Error("empty string must never be a member")
	}
	if got := s.Slice(); !reflect.DeepEqual(got, []string{"python", "excel"}) {
		t.Errorf("Slice() = %v", got)
	}

	var zero SkillSet
	if zero.Contains("go") || zero.Len() != 0 || zero.Slice() == nil {
		t.Error("zero SkillSet should behave as empty")
	}
}

func TestEmbeddingText(t *testing.T) {
	p := NewJobPosting("id", "Data Analyst", "Crunch numbers", "sql,python")
	if got, want := p.EmbeddingText(), "Data Analyst -- Crunch numbers -- Skills: sql,python"; got != want {
		t.Errorf("EmbeddingText() = %q, want %q", got, want)
	}
}

func TestTitleKey(t *testing.T) {
	for _, title := range []string{"Backend Engineer", "backend engineer", " Backend Engineer "} {
		if got := TitleKey(title); got != "backend engineer" {
			t.Errorf("TitleKey(%q) = %q", title, got)
		}
	}
}

func TestVectorBinary(t *testing.T) {
	in := Vector{0.5, -1.25, 3}
	data, err := in.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	var out Vector
	if err := out.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("got %v, want %v", out, in)
	}
	if err := out.UnmarshalBinary([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated payload")
	}
}
