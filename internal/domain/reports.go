package domain

// ExistingAccount lists the numeric username suffixes already issued for an email.
// A username equal to the bare email counts as suffix 1.
type ExistingAccount struct {
	Email                string       `json:"email"`
	NumericSuffixesInUse map[int]bool `json:"numeric_suffixes_in_use"`
}

// MaxSuffix returns the largest suffix in use, or 0 when none are.
func (a ExistingAccount) MaxSuffix() int {
	highest := 0
	for n := range a.NumericSuffixesInUse {
		if n > highest {
			highest = n
		}
	}
	return highest
}

// AccountAssignment pairs a lead with the username generated for it.
type AccountAssignment struct {
	LeadID   string `json:"lead_id"`
	Username string `json:"username"`
}

// SchoolWardSummary holds duplicate statistics for one (school, ward) pair.
type SchoolWardSummary struct {
	School        string  `json:"school"`
	Ward          string  `json:"ward"`
	Total         int     `json:"total"`
	Unique        int     `json:"unique"`
	Duplicates    int     `json:"duplicates"`
	DuplicateRate float64 `json:"duplicateRate"`
}

// SchoolAccountCount is one row of per-school issuance data from the account store.
type SchoolAccountCount struct {
	School   string `json:"school"`
	Issued   int    `json:"issued"`
	LoggedIn int    `json:"loggedIn"`
}

// SchoolReport correlates issued accounts with requested registrations for a school.
type SchoolReport struct {
	School        string `json:"school"`
	Issued        int    `json:"issued"`
	LoggedIn      int    `json:"loggedIn"`
	TotalRequests int    `json:"totalRequests"`
	Unprocessed   int    `json:"unprocessed"`
}

// SalesSummary totals a sales report.
type SalesSummary struct {
	TotalSchools  int `json:"totalSchools"`
	TotalAccounts int `json:"totalAccounts"`
	TotalLoggedIn int `json:"totalLoggedIn"`
}

// ContactStats counts how reachable a batch of leads is.
type ContactStats struct {
	Total     int `json:"total"`
	WithEmail int `json:"withEmail"`
	WithPhone int `json:"withPhone"`
	WithBoth  int `json:"withBoth"`
	WithNone  int `json:"withNone"`
}

// DailyCount is the number of leads created on one day.
type DailyCount struct {
	Date  string `json:"date"`
	Deals int    `json:"deals"`
}

// Analytics is the distribution overview of a lead batch.
type Analytics struct {
	GradeStats   map[string]int `json:"gradeStats"`
	WardStats    map[string]int `json:"wardStats"`
	SchoolStats  map[string]int `json:"schoolStats"`
	ContactStats ContactStats   `json:"contactStats"`
	TimeStats    map[string]int `json:"timeStats"`
	DailyDeals   []DailyCount   `json:"dailyDeals"`
}
