package pipeline

import (
	"sort"
	"strconv"
	"strings"
)

// SiteSummaryRow is the per-site rollup of the classified table. It is a
// derived view: always recomputed, never persisted.
type SiteSummaryRow struct {
	SiteCode   string `json:"SITE CODE"`
	AlarmCount int    `json:"Alarm Count"`
}

// CategoryCount is the per-outcome rollup consumed by the chart view.
type CategoryCount struct {
	Validation string `json:"validation"`
	Count      int    `json:"count"`
}

// Summarize groups classified tickets by site code and counts rows per
// group, descending by count. Tickets without a site code are excluded.
// Ties keep first-seen input order.
func Summarize(tickets []ClassifiedTicket) []SiteSummaryRow {
	counts := make(map[string]int)
	var order []string
	for _, t := range tickets {
		if t.SiteCode == "" {
			continue
		}
		if _, seen := counts[t.SiteCode]; !seen {
			order = append(order, t.SiteCode)
		}
		counts[t.SiteCode]++
	}

	rows := make([]SiteSummaryRow, 0, len(order))
	for _, site := range order {
		rows = append(rows, SiteSummaryRow{SiteCode: site, AlarmCount: counts[site]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AlarmCount > rows[j].AlarmCount
	})
	return rows
}

// ValidationCounts counts tickets per validation outcome in the fixed
// category order, zero-filling categories with no rows.
func ValidationCounts(tickets []ClassifiedTicket) []CategoryCount {
	byOutcome := make(map[string]int)
	for _, t := range tickets {
		byOutcome[t.Validation]++
	}

	out := make([]CategoryCount, 0, len(ValidationOrder))
	for _, v := range ValidationOrder {
		out = append(out, CategoryCount{Validation: v, Count: byOutcome[v]})
	}
	return out
}

// FilterSummary keeps rows whose site code or decimal alarm count contains
// the search term, case-insensitively. An empty term keeps everything.
func FilterSummary(rows []SiteSummaryRow, search string) []SiteSummaryRow {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return rows
	}

	var out []SiteSummaryRow
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.SiteCode), term) ||
			strings.Contains(strconv.Itoa(row.AlarmCount), term) {
			out = append(out, row)
		}
	}
	return out
}

// SortSummary reorders rows by the named column. Valid columns are
// "site_code" and "alarm_count"; anything else leaves the order untouched.
func SortSummary(rows []SiteSummaryRow, sortBy, order string) []SiteSummaryRow {
	sorted := make([]SiteSummaryRow, len(rows))
	copy(sorted, rows)

	desc := strings.EqualFold(order, "desc")
	switch strings.ToLower(sortBy) {
	case "site_code":
		sort.SliceStable(sorted, func(i, j int) bool {
			if desc {
				return sorted[i].SiteCode > sorted[j].SiteCode
			}
			return sorted[i].SiteCode < sorted[j].SiteCode
		})
	case "alarm_count":
		sort.SliceStable(sorted, func(i, j int) bool {
			if desc {
				return sorted[i].AlarmCount > sorted[j].AlarmCount
			}
			return sorted[i].AlarmCount < sorted[j].AlarmCount
		})
	}
	return sorted
}
