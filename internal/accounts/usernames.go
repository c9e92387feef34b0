// Package accounts derives login usernames for new leads without colliding
// with accounts that were already issued.
package accounts

import (
	"strconv"
	"strings"

	"lead-reconciliation/internal/domain"
)

// minNumberedSuffix is the first suffix a numbered username may take; the bare
// email is slot 1.
const minNumberedSuffix = 2

// EmailKey is the form of an email used for account grouping.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ExistingFromUsernames matches issued usernames against lead emails. A
// username equal to an email is suffix 1; an email followed only by digits is
// that number. Anything else is ignored.
func ExistingFromUsernames(usernames []string, emails []string) map[string]domain.ExistingAccount {
	known := make(map[string]bool, len(emails))
	for _, e := range emails {
		if k := EmailKey(e); k != "" {
			known[k] = true
		}
	}

	existing := make(map[string]domain.ExistingAccount)
	record := func(email string, n int) {
		acc, ok := existing[email]
		if !ok {
			acc = domain.ExistingAccount{Email: email, NumericSuffixesInUse: make(map[int]bool)}
			existing[email] = acc
		}
		acc.NumericSuffixesInUse[n] = true
	}

	for _, raw := range usernames {
		u := EmailKey(raw)
		if u == "" {
			continue
		}
		if known[u] {
			record(u, 1)
		}
		// Every split inside the trailing digit run is a candidate base email.
		for cut := len(u) - 1; cut > 0 && isDigit(u[cut]); cut-- {
			base := u[:cut]
			if !known[base] {
				continue
			}
			n, err := strconv.Atoi(u[cut:])
			if err != nil {
				continue
			}
			record(base, n)
		}
	}
	return existing
}

// AssignUsernames returns one assignment per lead, in input order.
//
// Leads are grouped by email. The first lead of an email with no issued
// accounts gets the bare email; every other lead gets the email followed by
// max(maxExisting+1, 2) plus its index within the group. Leads without an
// email get an empty username.
func AssignUsernames(leads []domain.LeadRecord, existing map[string]domain.ExistingAccount) []domain.AccountAssignment {
	out := make([]domain.AccountAssignment, len(leads))
	groupIndex := make(map[string]int)

	for i, lead := range leads {
		out[i].LeadID = lead.ID
		email := EmailKey(lead.Email)
		if email == "" {
			continue
		}

		idx := groupIndex[email]
		groupIndex[email] = idx + 1

		acc, hasExisting := existing[email]
		hasExisting = hasExisting && len(acc.NumericSuffixesInUse) > 0
		if !hasExisting && idx == 0 {
			out[i].Username = email
			continue
		}

		start := acc.MaxSuffix() + 1
		if start < minNumberedSuffix {
			start = minNumberedSuffix
		}
		out[i].Username = email + strconv.Itoa(start+idx)
	}
	return out
}

// UsernameIndex maps lead IDs to their assigned usernames.
func UsernameIndex(assignments []domain.AccountAssignment) map[string]string {
	idx := make(map[string]string, len(assignments))
	for _, a := range assignments {
		idx[a.LeadID] = a.Username
	}
	return idx
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
