package view

import (
	"slices"
	"strings"

	"era-admin-console/internal/models"
)

// SalesFilter narrows the sales page. Empty fields match everything.
type SalesFilter struct {
	Query          string
	Remarks        models.Remarks
	AccountManager string
}

// FilterSales returns matching accounts, newest first then by company.
func FilterSales(accounts []models.SalesAccount, f SalesFilter) []models.SalesAccount {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	manager := strings.TrimSpace(f.AccountManager)

	out := make([]models.SalesAccount, 0, len(accounts))
	for _, a := range accounts {
		if f.Remarks != "" && a.Remarks != f.Remarks {
			continue
		}
		if manager != "" && !strings.EqualFold(a.AccountManager, manager) {
			continue
		}
		if q != "" && !matchesAccount(a, q) {
			continue
		}
		out = append(out, a)
	}

	slices.SortStableFunc(out, func(a, b models.SalesAccount) int {
		switch {
		case a.CreatedAt.IsZero() && !b.CreatedAt.IsZero():
			return 1
		case !a.CreatedAt.IsZero() && b.CreatedAt.IsZero():
			return -1
		case !a.CreatedAt.IsZero() && !b.CreatedAt.IsZero():
			if c := b.CreatedAt.Compare(a.CreatedAt.Time); c != 0 {
				return c
			}
		}
		return strings.Compare(strings.ToLower(a.CompanyName), strings.ToLower(b.CompanyName))
	})
	return out
}

func matchesAccount(a models.SalesAccount, q string) bool {
	for _, field := range []string{a.CompanyName, a.ContactPerson, a.AccountManager, a.Email} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// RemarksCounts tallies accounts per remarks value.
type RemarksCounts struct {
	Total     int                    `json:"total"`
	ByRemarks map[models.Remarks]int `json:"by_remarks"`
}

func RemarksRollup(accounts []models.SalesAccount) RemarksCounts {
	rc := RemarksCounts{ByRemarks: make(map[models.Remarks]int, len(models.AllRemarks))}
	for _, r := range models.AllRemarks {
		rc.ByRemarks[r] = 0
	}
	for _, a := range accounts {
		rc.Total++
		rc.ByRemarks[a.Remarks]++
	}
	return rc
}

// Managers lists the distinct account managers, sorted.
func Managers(accounts []models.SalesAccount) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range accounts {
		name := strings.TrimSpace(a.AccountManager)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
