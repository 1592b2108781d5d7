package pipeline

import (
	"strings"
	"time"

	"github.com/ticket-validator/backend/internal/table"
)

// Validation outcomes, in the fixed category order used by the chart view.
const (
	ValidationValid    = "VALID"
	ValidationInvalid  = "INVALID"
	ValidationNotInNMS = "NOT IN NMS"
)

// ValidationOrder is the fixed category order for chart counts.
var ValidationOrder = []string{ValidationValid, ValidationInvalid, ValidationNotInNMS}

// validAlarmSubstring marks an alarm as genuinely backing a ticket.
// Case-sensitive substring match.
const validAlarmSubstring = "NE3SWS AGENT NOT RESPONDING TO REQUESTS"

// startTimeZone is the fixed offset alarm times are converted into. The
// alarm source carries no zone information; the naive timestamp is shifted
// into +08:00 as if it were UTC. Likely a latent bug in the source system,
// preserved for compatibility.
var startTimeZone = time.FixedZone("+08:00", 8*60*60)

const startTimeLayout = "2006-01-02 15:04:05-07:00"

// DailyTicket is one row of the daily-tickets upload plus the extracted
// site code. An empty SiteCode means extraction found nothing.
type DailyTicket struct {
	Number           string
	OpenedAt         string
	ShortDescription string
	SysUpdatedOn     string
	Alarms           string
	SiteCode         string
}

// ClassifiedTicket is a daily ticket augmented with its validation outcome.
// StartTime is empty unless the outcome is VALID; for INVALID it is
// suppressed even though a match existed.
type ClassifiedTicket struct {
	Number           string `json:"number"`
	OpenedAt         string `json:"opened_at"`
	ShortDescription string `json:"short_description"`
	SysUpdatedOn     string `json:"sys_updated_on"`
	Alarms           string `json:"ALARMS"`
	Validation       string `json:"VALIDATION"`
	StartTime        string `json:"START TIME,omitempty"`
	SiteCode         string `json:"SITE CODE"`
}

// OutputColumns is the projected column set of the classified table, in
// order.
var OutputColumns = []string{
	"number", "opened_at", "short_description", "sys_updated_on",
	"ALARMS", "VALIDATION", "START TIME", "SITE CODE",
}

// ParseDailyTickets converts a validated daily-tickets table into typed
// records, running site-code extraction on each description. The number,
// opened_at and sys_updated_on columns are passthrough: expected but not
// validated, so a missing column yields empty values rather than an error.
func ParseDailyTickets(tbl *table.Table) []DailyTicket {
	descCol, _ := tbl.Resolve("short_description")
	alarmsCol, _ := tbl.Resolve("ALARMS")
	numberCol, _ := tbl.Resolve("number")
	openedCol, _ := tbl.Resolve("opened_at")
	updatedCol, _ := tbl.Resolve("sys_updated_on")

	tickets := make([]DailyTicket, 0, tbl.Len())
	for _, row := range tbl.Rows {
		ticket := DailyTicket{
			Number:           row[numberCol],
			OpenedAt:         row[openedCol],
			ShortDescription: row[descCol],
			SysUpdatedOn:     row[updatedCol],
			Alarms:           row[alarmsCol],
		}
		if code, ok := ExtractSiteCode(ticket.ShortDescription); ok {
			ticket.SiteCode = code
		}
		tickets = append(tickets, ticket)
	}
	return tickets
}

// Classify left-joins daily tickets to resolved alarms on site code and
// assigns each ticket one of the three outcomes. Every input ticket appears
// exactly once in the output.
func Classify(daily []DailyTicket, resolved map[string]ResolvedAlarm) []ClassifiedTicket {
	out := make([]ClassifiedTicket, 0, len(daily))
	for _, ticket := range daily {
		classified := ClassifiedTicket{
			Number:           ticket.Number,
			OpenedAt:         ticket.OpenedAt,
			ShortDescription: ticket.ShortDescription,
			SysUpdatedOn:     ticket.SysUpdatedOn,
			Alarms:           ticket.Alarms,
			SiteCode:         ticket.SiteCode,
		}

		alarm, matched := ResolvedAlarm{}, false
		if ticket.SiteCode != "" {
			alarm, matched = resolved[ticket.SiteCode]
		}

		switch {
		case !matched:
			classified.Validation = ValidationNotInNMS
		case strings.Contains(alarm.AlarmText, validAlarmSubstring):
			classified.Validation = ValidationValid
			classified.StartTime = FormatStartTime(alarm.AlarmTime)
		default:
			classified.Validation = ValidationInvalid
			// A match existed, but the start time is suppressed for
			// invalid tickets.
		}

		out = append(out, classified)
	}
	return out
}

// FormatStartTime shifts a naive alarm time into the fixed +08:00 offset
// and renders it with the offset suffix. The naive value is interpreted as
// UTC, so the wall clock moves forward eight hours.
func FormatStartTime(t time.Time) string {
	return t.In(startTimeZone).Format(startTimeLayout)
}
