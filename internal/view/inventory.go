// Package view derives what the pages show from a feed's raw list. Every
// call recomputes over the full collection.
package view

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"era-admin-console/internal/models"
)

// Period selects a year and optionally a month. Month 0 means the whole year.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month,omitempty"`
}

// CurrentPeriod is the period the inventory page opens on.
func CurrentPeriod(now time.Time) Period {
	return Period{Year: now.Year(), Month: now.Month()}
}

func (p Period) contains(d models.Date) bool {
	if d.Year != p.Year {
		return false
	}
	return p.Month == 0 || d.Month == p.Month
}

// FilterInventory returns the sorted subset of items the inventory page
// lists. A non-empty query matches the item id, any serial number or the
// client name and ignores the period entirely.
func FilterInventory(items []models.InventoryItem, query string, period Period) []models.InventoryItem {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]models.InventoryItem, 0, len(items))
	for _, it := range items {
		if q != "" {
			if matchesItem(it, q) {
				out = append(out, it)
			}
			continue
		}
		if period.contains(it.EntryDate) {
			out = append(out, it)
		}
	}
	SortInventory(out)
	return out
}

func matchesItem(it models.InventoryItem, q string) bool {
	if strings.Contains(strings.ToLower(it.ID), q) || strings.Contains(strings.ToLower(it.ClientName), q) {
		return true
	}
	for _, sn := range it.SerialNumbers {
		if strings.Contains(strings.ToLower(sn.SerialNumber), q) {
			return true
		}
	}
	return false
}

// SortInventory orders items newest entry first. Items entered the same day
// are ordered by the numeric suffix of their id, highest first, so ITM-10
// comes before ITM-2.
func SortInventory(items []models.InventoryItem) {
	slices.SortStableFunc(items, func(a, b models.InventoryItem) int {
		if c := b.EntryDate.Time().Compare(a.EntryDate.Time()); c != 0 {
			return c
		}
		if c := cmp.Compare(idSuffix(b.ID), idSuffix(a.ID)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// idSuffix extracts the trailing run of digits of id, or -1.
func idSuffix(id string) int {
	end := len(id)
	start := end
	for start > 0 && id[start-1] >= '0' && id[start-1] <= '9' {
		start--
	}
	if start == end {
		return -1
	}
	n, err := strconv.Atoi(id[start:end])
	if err != nil {
		return -1
	}
	return n
}

// Rollup counts a year's items by status.
type Rollup struct {
	Year        int `json:"year"`
	Total       int `json:"total"`
	Delivered   int `json:"delivered"`
	ForDelivery int `json:"for_delivery"`
	Pending     int `json:"pending"`
}

// YearRollup is computed over every item entered in year, independent of
// any query or month selection.
func YearRollup(items []models.InventoryItem, year int) Rollup {
	r := Rollup{Year: year}
	for _, it := range items {
		if it.EntryDate.Year != year {
			continue
		}
		r.Total++
		switch it.ItemStatus {
		case models.StatusDelivered:
			r.Delivered++
		case models.StatusForDelivery:
			r.ForDelivery++
		case models.StatusPending:
			r.Pending++
		}
	}
	return r
}

// Years lists the distinct entry years, newest first.
func Years(items []models.InventoryItem) []int {
	seen := make(map[int]bool)
	var years []int
	for _, it := range items {
		if it.EntryDate.IsZero() || seen[it.EntryDate.Year] {
			continue
		}
		seen[it.EntryDate.Year] = true
		years = append(years, it.EntryDate.Year)
	}
	slices.SortFunc(years, func(a, b int) int { return cmp.Compare(b, a) })
	return years
}
