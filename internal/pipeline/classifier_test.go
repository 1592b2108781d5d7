package pipeline

import (
	"testing"

	"github.com/ticket-validator/backend/internal/table"
)

func TestParseDailyTicketsExtractsSiteCodes(t *testing.T) {
	tbl := &table.Table{
		Headers: []string{"number", "opened_at", "short_description", "sys_updated_on", "ALARMS"},
		Rows: []map[string]string{
			{"number": "INC1", "opened_at": "2024-01-01", "short_description": "(INC001) SITE42 link down", "sys_updated_on": "2024-01-02", "ALARMS": "yes"},
			{"number": "INC2", "opened_at": "2024-01-01", "short_description": "no code here", "sys_updated_on": "2024-01-02", "ALARMS": ""},
		},
	}

	tickets := ParseDailyTickets(tbl)

	if len(tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(tickets))
	}
	if tickets[0].SiteCode != "SITE42" {
		t.Fatalf("expected extracted site code, got %q", tickets[0].SiteCode)
	}
	if tickets[1].SiteCode != "" {
		t.Fatalf("expected absent site code, got %q", tickets[1].SiteCode)
	}
	if tickets[0].Number != "INC1" || tickets[0].Alarms != "yes" {
		t.Fatalf("passthrough fields lost: %+v", tickets[0])
	}
}

func TestClassifyNotInNMS(t *testing.T) {
	daily := []DailyTicket{
		{Number: "INC1", ShortDescription: "(INC001) SITE42 link down", SiteCode: "SITE42"},
	}

	out := Classify(daily, map[string]ResolvedAlarm{})

	if len(out) != 1 {
		t.Fatalf("expected 1 classified ticket, got %d", len(out))
	}
	if out[0].Validation != ValidationNotInNMS {
		t.Fatalf("expected NOT IN NMS, got %q", out[0].Validation)
	}
	if out[0].StartTime != "" {
		t.Fatalf("expected absent start time, got %q", out[0].StartTime)
	}
}

func TestClassifyValidWithOffsetShift(t *testing.T) {
	daily := []DailyTicket{
		{Number: "INC1", SiteCode: "SITE42"},
	}
	resolved := map[string]ResolvedAlarm{
		"SITE42": {
			AlarmText: "NE3SWS AGENT NOT RESPONDING TO REQUESTS",
			AlarmTime: mustParse(t, "2024-01-01 10:00:00"),
		},
	}

	out := Classify(daily, resolved)

	if out[0].Validation != ValidationValid {
		t.Fatalf("expected VALID, got %q", out[0].Validation)
	}
	// The naive time is shifted into the fixed +08:00 offset.
	if out[0].StartTime != "2024-01-01 18:00:00+08:00" {
		t.Fatalf("unexpected start time %q", out[0].StartTime)
	}
}

func TestClassifyInvalidSuppressesStartTime(t *testing.T) {
	daily := []DailyTicket{
		{Number: "INC1", SiteCode: "SITE42"},
	}
	resolved := map[string]ResolvedAlarm{
		"SITE42": {
			AlarmText: "LINK FLAP DETECTED",
			AlarmTime: mustParse(t, "2024-01-01 10:00:00"),
		},
	}

	out := Classify(daily, resolved)

	if out[0].Validation != ValidationInvalid {
		t.Fatalf("expected INVALID, got %q", out[0].Validation)
	}
	if out[0].StartTime != "" {
		t.Fatalf("expected suppressed start time, got %q", out[0].StartTime)
	}
}

func TestClassifyDiagnosticMatchIsCaseSensitive(t *testing.T) {
	daily := []DailyTicket{{SiteCode: "SITE42"}}
	resolved := map[string]ResolvedAlarm{
		"SITE42": {
			AlarmText: "ne3sws agent not responding to requests",
			AlarmTime: mustParse(t, "2024-01-01 10:00:00"),
		},
	}

	out := Classify(daily, resolved)

	if out[0].Validation != ValidationInvalid {
		t.Fatalf("lowercase diagnostic must not match, got %q", out[0].Validation)
	}
}

func TestClassifyAbsentSiteCodeNeverMatches(t *testing.T) {
	daily := []DailyTicket{{Number: "INC1"}}
	resolved := map[string]ResolvedAlarm{
		"": {AlarmText: "NE3SWS AGENT NOT RESPONDING TO REQUESTS"},
	}

	out := Classify(daily, resolved)

	if out[0].Validation != ValidationNotInNMS {
		t.Fatalf("ticket without a site code must be NOT IN NMS, got %q", out[0].Validation)
	}
}

func TestClassifyPreservesRowCount(t *testing.T) {
	daily := make([]DailyTicket, 25)
	for i := range daily {
		daily[i] = DailyTicket{Number: "INC", SiteCode: "SITE42"}
	}
	resolved := map[string]ResolvedAlarm{
		"SITE42": {AlarmText: "LINK FLAP DETECTED", AlarmTime: mustParse(t, "2024-01-01 10:00:00")},
	}

	out := Classify(daily, resolved)

	if len(out) != len(daily) {
		t.Fatalf("left join dropped rows: %d != %d", len(out), len(daily))
	}
}

func TestFormatStartTimeYearBoundary(t *testing.T) {
	got := FormatStartTime(mustParse(t, "2023-12-31 20:30:00"))
	if got != "2024-01-01 04:30:00+08:00" {
		t.Fatalf("unexpected formatted time %q", got)
	}
}
