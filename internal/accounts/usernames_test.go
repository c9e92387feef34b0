package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lead-reconciliation/internal/domain"
)

func suffixes(email string, ns ...int) domain.ExistingAccount {
	acc := domain.ExistingAccount{Email: email, NumericSuffixesInUse: make(map[int]bool)}
	for _, n := range ns {
		acc.NumericSuffixesInUse[n] = true
	}
	return acc
}

func TestAssignUsernames(t *testing.T) {
	tests := []struct {
		name     string
		leads    []domain.LeadRecord
		existing map[string]domain.ExistingAccount
		want     []string
	}{
		{
			name:  "first ever registrant gets the bare email",
			leads: []domain.LeadRecord{{ID: "1", Email: "x@y.com"}},
			want:  []string{"x@y.com"},
		},
		{
			name:  "second registrant in the same run starts at startNumber plus index",
			leads: []domain.LeadRecord{{ID: "1", Email: "x@y.com"}, {ID: "2", Email: "x@y.com"}},
			want:  []string{"x@y.com", "x@y.com3"},
		},
		{
			name:     "pre-existing bare account skips the bare slot",
			leads:    []domain.LeadRecord{{ID: "1", Email: "x@y.com"}},
			existing: map[string]domain.ExistingAccount{"x@y.com": suffixes("x@y.com", 1)},
			want:     []string{"x@y.com2"},
		},
		{
			name:     "numbering continues above the highest issued suffix",
			leads:    []domain.LeadRecord{{ID: "1", Email: "x@y.com"}, {ID: "2", Email: "x@y.com"}},
			existing: map[string]domain.ExistingAccount{"x@y.com": suffixes("x@y.com", 1, 4)},
			want:     []string{"x@y.com5", "x@y.com6"},
		},
		{
			name:     "empty suffix set behaves like no existing account",
			leads:    []domain.LeadRecord{{ID: "1", Email: "x@y.com"}},
			existing: map[string]domain.ExistingAccount{"x@y.com": suffixes("x@y.com")},
			want:     []string{"x@y.com"},
		},
		{
			name: "emails are grouped case-insensitively and blanks get nothing",
			leads: []domain.LeadRecord{
				{ID: "1", Email: " X@Y.com"},
				{ID: "2", Email: ""},
				{ID: "3", Email: "b@y.com"},
				{ID: "4", Email: "x@y.COM "},
			},
			want: []string{"x@y.com", "", "b@y.com", "x@y.com3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssignUsernames(tt.leads, tt.existing)
			assert.Len(t, got, len(tt.leads))
			for i, a := range got {
				assert.Equal(t, tt.leads[i].ID, a.LeadID)
				assert.Equal(t, tt.want[i], a.Username)
			}
		})
	}
}

func TestAssignUsernames_NoCollisionWithExisting(t *testing.T) {
	existing := map[string]domain.ExistingAccount{"x@y.com": suffixes("x@y.com", 1, 2, 3)}
	leads := []domain.LeadRecord{{ID: "1", Email: "x@y.com"}, {ID: "2", Email: "x@y.com"}, {ID: "3", Email: "x@y.com"}}

	seen := map[string]bool{"x@y.com": true, "x@y.com2": true, "x@y.com3": true}
	for _, a := range AssignUsernames(leads, existing) {
		assert.False(t, seen[a.Username], "collision on %s", a.Username)
		seen[a.Username] = true
	}
}

func TestExistingFromUsernames(t *testing.T) {
	usernames := []string{
		"X@Y.com",
		"x@y.com2",
		" x@y.com17 ",
		"x@y.com.vn",
		"x@y.comabc",
		"b@y.com99999999999999999999999",
		"unrelated@z.com",
		"",
	}
	emails := []string{"x@y.com", "B@y.com", ""}

	got := ExistingFromUsernames(usernames, emails)

	assert.Equal(t, map[string]domain.ExistingAccount{
		"x@y.com": suffixes("x@y.com", 1, 2, 17),
	}, got)
}

func TestExistingFromUsernames_EmailEndingInDigits(t *testing.T) {
	got := ExistingFromUsernames([]string{"a1@x.co12"}, []string{"a1@x.co1"})
	assert.Equal(t, map[string]domain.ExistingAccount{"a1@x.co1": suffixes("a1@x.co1", 2)}, got)
}

func TestUsernameIndex(t *testing.T) {
	idx := UsernameIndex([]domain.AccountAssignment{{LeadID: "1", Username: "a"}, {LeadID: "2", Username: ""}})
	assert.Equal(t, map[string]string{"1": "a", "2": ""}, idx)
}
