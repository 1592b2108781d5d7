package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/ticket-validator/backend/internal/table"
)

// AlarmTimeLayout is the fixed textual format of the Alarm Time column. The
// value carries no zone; it is parsed as a naive timestamp and relabeled at
// a fixed offset by the classifier.
const AlarmTimeLayout = "2006-01-02 15:04:05"

// AlarmRecord is one row of the alarm-tickets upload.
type AlarmRecord struct {
	SiteCode  string
	AlarmTime time.Time
	AlarmText string
}

// ResolvedAlarm is the single most recent alarm retained for a site.
type ResolvedAlarm struct {
	AlarmText string
	AlarmTime time.Time
}

// ParseAlarmRecords converts a validated alarm-tickets table into typed
// records. The controlling object name is trimmed to produce the site code.
// Any Alarm Time value that does not match the expected layout fails the
// whole run with a ParseError.
func ParseAlarmRecords(tbl *table.Table) ([]AlarmRecord, error) {
	siteCol, _ := tbl.Resolve("Controlling Object Name")
	timeCol, _ := tbl.Resolve("Alarm Time")
	textCol, _ := tbl.Resolve("Alarm Text")

	records := make([]AlarmRecord, 0, tbl.Len())
	for _, row := range tbl.Rows {
		raw := row[timeCol]
		ts, err := time.Parse(AlarmTimeLayout, raw)
		if err != nil {
			return nil, &ParseError{Field: "Alarm Time", Value: raw, Err: err}
		}
		records = append(records, AlarmRecord{
			SiteCode:  strings.TrimSpace(row[siteCol]),
			AlarmTime: ts,
			AlarmText: row[textCol],
		})
	}
	return records, nil
}

// ResolveLatest reduces the alarm records to at most one per distinct site
// code, keeping the most recent. On identical timestamps for the same site
// the earlier input record wins: the sort is stable over input order, so the
// first record seen for the winning timestamp is the one retained.
func ResolveLatest(alarms []AlarmRecord) map[string]ResolvedAlarm {
	sorted := make([]AlarmRecord, len(alarms))
	copy(sorted, alarms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AlarmTime.After(sorted[j].AlarmTime)
	})

	resolved := make(map[string]ResolvedAlarm)
	for _, rec := range sorted {
		if rec.SiteCode == "" {
			continue
		}
		if _, seen := resolved[rec.SiteCode]; seen {
			continue
		}
		resolved[rec.SiteCode] = ResolvedAlarm{
			AlarmText: rec.AlarmText,
			AlarmTime: rec.AlarmTime,
		}
	}
	return resolved
}
