package sources

import "sort"

// Controlled vocabulary for the Discipline search filter. Source clients
// carry their own static expansion tables from these values to
// repository-specific query fragments or filter syntax; values a source has
// no mapping for are silently ignored by that source.
const (
	DisciplineBiology         = "biology"
	DisciplineChemistry       = "chemistry"
	DisciplinePhysics         = "physics"
	DisciplineMathematics     = "mathematics"
	DisciplineComputerScience = "computer-science"
	DisciplineEngineering     = "engineering"
	DisciplineMedicine        = "medicine"
	DisciplineEconomics       = "economics"
	DisciplinePsychology      = "psychology"
	DisciplineSociology       = "sociology"
	DisciplineHistory         = "history"
	DisciplineEducation       = "education"
)

// Controlled vocabulary for the EducationLevel search filter.
const (
	EducationLevelK12           = "k12"
	EducationLevelUndergraduate = "undergraduate"
	EducationLevelGraduate      = "graduate"
)

var disciplines = map[string]struct{}{
	DisciplineBiology:         {},
	DisciplineChemistry:       {},
	DisciplinePhysics:         {},
	DisciplineMathematics:     {},
	DisciplineComputerScience: {},
	DisciplineEngineering:     {},
	DisciplineMedicine:        {},
	DisciplineEconomics:       {},
	DisciplinePsychology:      {},
	DisciplineSociology:       {},
	DisciplineHistory:         {},
	DisciplineEducation:       {},
}

var educationLevels = map[string]struct{}{
	EducationLevelK12:           {},
	EducationLevelUndergraduate: {},
	EducationLevelGraduate:      {},
}

// KnownDiscipline reports whether d is part of the controlled vocabulary.
func KnownDiscipline(d string) bool {
	_, ok := disciplines[d]
	return ok
}

// KnownEducationLevel reports whether l is part of the controlled vocabulary.
func KnownEducationLevel(l string) bool {
	_, ok := educationLevels[l]
	return ok
}

// Disciplines returns the controlled vocabulary in sorted order.
func Disciplines() []string {
	out := make([]string, 0, len(disciplines))
	for d := range disciplines {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// EducationLevels returns the controlled vocabulary in sorted order.
func EducationLevels() []string {
	out := make([]string, 0, len(educationLevels))
	for l := range educationLevels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// ExpansionTable maps controlled-vocabulary values to repository-specific
// query fragments. A missing key means the source does not act on the value.
type ExpansionTable map[string]string

// Expand returns the repository-specific fragment for term, or "" when the
// source has no mapping.
func (t ExpansionTable) Expand(term string) string {
	return t[term]
}
