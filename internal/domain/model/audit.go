package model

import (
	"strings"
	"time"
)

// AuditColumns lists the spreadsheet header in column order (A..M).
var AuditColumns = []string{
	"Timestamp",
	"Stream",
	"DatastreamId",
	"Start",
	"End",
	"Instance",
	"RawPrompt",
	"Status",
	"ErrorDetail",
	"JobId",
	"TriggerUserId",
	"TriggerChannelId",
	"NotifiedAt",
}

// AuditTimeLayout is the timestamp layout written to Timestamp and NotifiedAt cells.
const AuditTimeLayout = time.RFC3339

// AuditRow is the denormalised projection of a FetchRequest and its JobRecord
// persisted as one spreadsheet row.
type AuditRow struct {
	// Position is the 1-based sheet row number; zero for rows not yet written.
	Position int `json:"position,omitempty"`

	Timestamp    string    `json:"timestamp"`
	Stream       string    `json:"stream"`
	DatastreamID string    `json:"datastream_id"`
	Start        string    `json:"start"`
	End          string    `json:"end"`
	Instance     string    `json:"instance"`
	RawPrompt    string    `json:"raw_prompt"`
	Status       JobStatus `json:"status"`
	ErrorDetail  string    `json:"error_detail"`
	JobID        string    `json:"job_id"`
	UserID       string    `json:"trigger_user_id"`
	ChannelID    string    `json:"trigger_channel_id"`
	NotifiedAt   string    `json:"notified_at"`
}

// NewAuditRow projects a request and its record into a row.
func NewAuditRow(req FetchRequest, instance string, rec JobRecord) AuditRow {
	row := AuditRow{
		Timestamp:    req.RequestedAt.UTC().Format(AuditTimeLayout),
		Stream:       req.StreamName,
		DatastreamID: req.StreamID,
		Start:        req.Start,
		End:          req.End,
		Instance:     instance,
		RawPrompt:    req.RawPrompt(),
		UserID:       req.RequesterID,
		ChannelID:    req.ChannelID,
	}
	row.Apply(rec)
	return row
}

// Apply copies the mutable JobRecord fields onto the row.
func (r *AuditRow) Apply(rec JobRecord) {
	r.Status = rec.Status
	r.ErrorDetail = rec.ErrorDetail
	if rec.JobID != "" {
		r.JobID = rec.JobID
	}
	if rec.NotifiedAt != nil {
		r.NotifiedAt = rec.NotifiedAt.UTC().Format(AuditTimeLayout)
	}
}

// Record reconstructs the JobRecord held by the row. An unparsable NotifiedAt cell
// still counts as notified so that a hand-edited sheet never triggers a re-send.
func (r AuditRow) Record() JobRecord {
	rec := JobRecord{
		JobID:       r.JobID,
		Status:      r.Status,
		ErrorDetail: r.ErrorDetail,
	}
	if strings.TrimSpace(r.NotifiedAt) != "" {
		t, err := time.Parse(AuditTimeLayout, strings.TrimSpace(r.NotifiedAt))
		if err != nil {
			t = time.Time{}
		}
		rec.NotifiedAt = &t
	}
	return rec
}

// Open reports whether the row names a job that has not reached a terminal state.
func (r AuditRow) Open() bool {
	return r.JobID != "" && !r.Status.IsTerminal()
}

// NeedsNotification reports whether the row is terminal but its notification was never delivered.
func (r AuditRow) NeedsNotification() bool {
	return r.JobID != "" && r.Status.IsTerminal() && strings.TrimSpace(r.NotifiedAt) == ""
}

// Values returns the row as sheet cells in AuditColumns order.
func (r AuditRow) Values() []any {
	return []any{
		r.Timestamp,
		r.Stream,
		r.DatastreamID,
		r.Start,
		r.End,
		r.Instance,
		r.RawPrompt,
		string(r.Status),
		r.ErrorDetail,
		r.JobID,
		r.UserID,
		r.ChannelID,
		r.NotifiedAt,
	}
}

// AuditRowFromValues parses sheet cells into a row. Missing trailing cells are empty.
func AuditRowFromValues(position int, cells []string) AuditRow {
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	return AuditRow{
		Position:     position,
		Timestamp:    cell(0),
		Stream:       cell(1),
		DatastreamID: cell(2),
		Start:        cell(3),
		End:          cell(4),
		Instance:     cell(5),
		RawPrompt:    cell(6),
		Status:       JobStatus(strings.ToLower(cell(7))),
		ErrorDetail:  cell(8),
		JobID:        cell(9),
		UserID:       cell(10),
		ChannelID:    cell(11),
		NotifiedAt:   cell(12),
	}
}
