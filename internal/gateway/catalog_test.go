package gateway

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-reconciliation/internal/domain"
)

func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    domain.Catalog
		wantErr string
	}{
		{
			name: "full catalog",
			yaml: `
course_prefix: Tiếng Anh
default_password: secret
group_tags:
  before: [FTDP]
  after: [TKTC]
always_include: ["Kim Đồng - Gò Vấp", "  "]
curriculum:
  - {school: " Hòa Bình ", ward: Sài Gòn, scheme: OLD}
  - {school: Lê Lợi, ward: Bến Nghé, scheme: new}
`,
			want: domain.Catalog{
				Curriculum: map[string]domain.Curriculum{
					"Hòa Bình-Sài Gòn": domain.CurriculumOld,
					"Lê Lợi-Bến Nghé":  domain.CurriculumNew,
				},
				AlwaysInclude:   map[string]bool{"Kim Đồng - Gò Vấp": true},
				CoursePrefix:    "Tiếng Anh",
				DefaultPassword: "secret",
				GroupTagsBefore: []string{"FTDP"},
				GroupTagsAfter:  []string{"TKTC"},
			},
		},
		{
			name: "empty document",
			yaml: ``,
			want: domain.Catalog{
				Curriculum:    map[string]domain.Curriculum{},
				AlwaysInclude: map[string]bool{},
			},
		},
		{
			name:    "missing ward",
			yaml:    "curriculum:\n  - {school: Hòa Bình, scheme: old}\n",
			wantErr: "school and ward are required",
		},
		{
			name:    "unknown scheme",
			yaml:    "curriculum:\n  - {school: Hòa Bình, ward: Sài Gòn, scheme: legacy}\n",
			wantErr: "unknown scheme",
		},
		{
			name:    "malformed yaml",
			yaml:    "curriculum: [",
			wantErr: "could not decode catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCatalog([]byte(tt.yaml))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadCatalog_Shipped(t *testing.T) {
	catalog, err := LoadCatalog(filepath.Join("..", "..", "configs", "catalog.yaml"))
	require.NoError(t, err)

	assert.Len(t, catalog.Curriculum, 35)
	assert.NotEmpty(t, catalog.CoursePrefix)
	assert.NotEmpty(t, catalog.DefaultPassword)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
