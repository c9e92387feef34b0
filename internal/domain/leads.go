package domain

import "time"

// LeadRecord represents one CRM deal (a student registration).
// ID is the only field guaranteed to be present; everything else may be blank.
type LeadRecord struct {
	ID            string     `json:"ID"`
	Title         string     `json:"TITLE,omitempty"`
	StudentName   string     `json:"studentName,omitempty"`
	ParentName    string     `json:"parentOfStudentName,omitempty"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	SchoolName    string     `json:"schoolName,omitempty"`
	SchoolType    string     `json:"schoolType,omitempty"`
	SchoolNameTmp string     `json:"schoolNameTmp,omitempty"` // school as typed by the parent
	Ward          string     `json:"ward,omitempty"`
	Grade         string     `json:"grade,omitempty"`
	ClassName     string     `json:"className,omitempty"`
	Address       string     `json:"address,omitempty"`
	CreatedAt     *time.Time `json:"DATE_CREATE,omitempty"`
	Disabled      bool       `json:"isDisabled,omitempty"`
}

// NormalizedIdentity is the deduplication key of a lead.
type NormalizedIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IsZero reports whether both components are empty.
func (n NormalizedIdentity) IsZero() bool {
	return n.Name == "" && n.Email == ""
}

// Key renders the identity the way operators see it in exports and selections.
func (n NormalizedIdentity) Key() string {
	return n.Name + ":::" + n.Email
}

// DuplicateGroup is a set of leads sharing one NormalizedIdentity.
type DuplicateGroup struct {
	Identity NormalizedIdentity `json:"identity"`
	Count    int                `json:"count"`
	Leads    []LeadRecord       `json:"deals"`
}

// IsDuplicate reports whether the group holds more than one lead.
func (g DuplicateGroup) IsDuplicate() bool {
	return g.Count > 1
}

// PairResolution describes what to do with a two-record duplicate group.
type PairResolution struct {
	Identity NormalizedIdentity `json:"identity"`
	Keep     string             `json:"keep"`
	// Removable is set only when the pair is an exact duplicate.
	Removable   string   `json:"removable,omitempty"`
	Differences []string `json:"differences,omitempty"`
}

// Exact reports whether the two records carry identical facts.
func (p PairResolution) Exact() bool {
	return len(p.Differences) == 0
}
