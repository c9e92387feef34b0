package domain

import "strings"

// Curriculum is the course-naming scheme a school-ward pair follows.
type Curriculum string

const (
	CurriculumOld Curriculum = "old"
	CurriculumNew Curriculum = "new"
)

// Catalog is the static business data the pipeline is parameterized over.
type Catalog struct {
	// Curriculum maps "school-ward" to a naming scheme.
	Curriculum      map[string]Curriculum
	AlwaysInclude   map[string]bool
	CoursePrefix    string
	DefaultPassword string
	GroupTagsBefore []string
	GroupTagsAfter  []string
}

// CurriculumFor looks up the scheme for a school and ward. The exact
// "school-ward" key wins; otherwise the ward is retried without its
// "Phường " prefix.
func (c Catalog) CurriculumFor(school, ward string) (Curriculum, bool) {
	if v, ok := c.Curriculum[school+"-"+ward]; ok {
		return v, true
	}
	if short, found := strings.CutPrefix(ward, "Phường "); found {
		v, ok := c.Curriculum[school+"-"+short]
		return v, ok
	}
	return "", false
}
