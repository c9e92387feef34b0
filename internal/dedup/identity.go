// Package dedup groups leads by their normalized (name, email) identity.
package dedup

import (
	"sort"

	"lead-reconciliation/internal/domain"
	"lead-reconciliation/internal/normalize"
)

// IdentityOf computes the deduplication key of a lead. The student name wins
// over the parent name; both are title-cased before normalization.
func IdentityOf(lead domain.LeadRecord) domain.NormalizedIdentity {
	name := normalize.Normalize(normalize.TitleCase(lead.StudentName))
	if name == "" {
		name = normalize.Normalize(normalize.TitleCase(lead.ParentName))
	}
	return domain.NormalizedIdentity{
		Name:  name,
		Email: normalize.Normalize(lead.Email),
	}
}

// Index holds leads grouped by identity, remembering first-seen order.
type Index struct {
	order  []domain.NormalizedIdentity
	groups map[domain.NormalizedIdentity][]domain.LeadRecord
}

// GroupByIdentity groups leads by IdentityOf. Leads with neither a student nor
// a parent name are left out entirely. Order within a group follows input order.
func GroupByIdentity(leads []domain.LeadRecord) *Index {
	idx := &Index{groups: make(map[domain.NormalizedIdentity][]domain.LeadRecord)}
	for _, lead := range leads {
		id := IdentityOf(lead)
		if id.Name == "" {
			continue
		}
		if _, ok := idx.groups[id]; !ok {
			idx.order = append(idx.order, id)
		}
		idx.groups[id] = append(idx.groups[id], lead)
	}
	return idx
}

// Len returns the number of distinct identities.
func (idx *Index) Len() int {
	return len(idx.order)
}

// Get returns the leads sharing id.
func (idx *Index) Get(id domain.NormalizedIdentity) []domain.LeadRecord {
	return idx.groups[id]
}

// Groups returns every group in first-seen order.
func (idx *Index) Groups() []domain.DuplicateGroup {
	out := make([]domain.DuplicateGroup, 0, len(idx.order))
	for _, id := range idx.order {
		leads := idx.groups[id]
		out = append(out, domain.DuplicateGroup{Identity: id, Count: len(leads), Leads: leads})
	}
	return out
}

// UniqueIdentities flattens the groups that hold exactly one lead.
func UniqueIdentities(idx *Index) []domain.LeadRecord {
	var out []domain.LeadRecord
	for _, id := range idx.order {
		if leads := idx.groups[id]; len(leads) == 1 {
			out = append(out, leads[0])
		}
	}
	return out
}

// DuplicateGroups returns the groups holding more than one lead, largest first.
// Groups of equal size keep first-seen order.
func DuplicateGroups(idx *Index) []domain.DuplicateGroup {
	var out []domain.DuplicateGroup
	for _, g := range idx.Groups() {
		if g.IsDuplicate() {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// DuplicateIDs returns the IDs of every lead that belongs to a duplicate group.
func DuplicateIDs(leads []domain.LeadRecord) map[string]bool {
	ids := make(map[string]bool)
	for _, g := range DuplicateGroups(GroupByIdentity(leads)) {
		for _, lead := range g.Leads {
			ids[lead.ID] = true
		}
	}
	return ids
}
