package models

import "time"

// PipelineRun is the persisted record of one validation run. Only metadata
// is stored; the classified table itself lives in the result cache and is
// re-derivable from a fresh upload.
type PipelineRun struct {
	ID            string    `json:"id"`
	ContentHash   string    `json:"content_hash"`
	DailyFile     string    `json:"daily_file"`
	AlarmFile     string    `json:"alarm_file"`
	TicketRows    int       `json:"ticket_rows"`
	AlarmRows     int       `json:"alarm_rows"`
	ValidCount    int       `json:"valid_count"`
	InvalidCount  int       `json:"invalid_count"`
	NotInNMSCount int       `json:"not_in_nms_count"`
	LatencyMS     int       `json:"latency_ms"`
	CreatedAt     time.Time `json:"created_at"`
}
