package gateway

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"lead-reconciliation/internal/domain"
)

type catalogFile struct {
	CoursePrefix    string            `yaml:"course_prefix"`
	DefaultPassword string            `yaml:"default_password"`
	GroupTags       groupTagsFile     `yaml:"group_tags"`
	AlwaysInclude   []string          `yaml:"always_include"`
	Curriculum      []curriculumEntry `yaml:"curriculum"`
}

type groupTagsFile struct {
	Before []string `yaml:"before"`
	After  []string `yaml:"after"`
}

type curriculumEntry struct {
	School string `yaml:"school"`
	Ward   string `yaml:"ward"`
	Scheme string `yaml:"scheme"`
}

// LoadCatalog reads the business catalog from a YAML file.
func LoadCatalog(path string) (domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog decodes catalog YAML. Every curriculum entry needs a school,
// a ward and a scheme of "old" or "new".
func ParseCatalog(data []byte) (domain.Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.Catalog{}, fmt.Errorf("could not decode catalog: %w", err)
	}

	catalog := domain.Catalog{
		Curriculum:      make(map[string]domain.Curriculum, len(f.Curriculum)),
		AlwaysInclude:   make(map[string]bool, len(f.AlwaysInclude)),
		CoursePrefix:    f.CoursePrefix,
		DefaultPassword: f.DefaultPassword,
		GroupTagsBefore: f.GroupTags.Before,
		GroupTagsAfter:  f.GroupTags.After,
	}
	for i, e := range f.Curriculum {
		school, ward := strings.TrimSpace(e.School), strings.TrimSpace(e.Ward)
		if school == "" || ward == "" {
			return domain.Catalog{}, fmt.Errorf("curriculum entry %d: school and ward are required", i+1)
		}
		scheme := domain.Curriculum(strings.ToLower(strings.TrimSpace(e.Scheme)))
		if scheme != domain.CurriculumOld && scheme != domain.CurriculumNew {
			return domain.Catalog{}, fmt.Errorf("curriculum entry %d (%s-%s): unknown scheme %q", i+1, school, ward, e.Scheme)
		}
		catalog.Curriculum[school+"-"+ward] = scheme
	}
	for _, s := range f.AlwaysInclude {
		if s = strings.TrimSpace(s); s != "" {
			catalog.AlwaysInclude[s] = true
		}
	}
	return catalog, nil
}
