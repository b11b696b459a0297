package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() FetchRequest {
	return FetchRequest{
		ID:            "req-1",
		StreamName:    "meta",
		StreamID:      "674",
		Start:         "2025-06-01",
		End:           "2025-06-02",
		RangeText:     "01.06.-02.06.25",
		RawText:       "meta 01.06.-02.06.25",
		RequesterID:   "U123",
		RequesterName: "sam",
		ChannelID:     "C456",
		RequestedAt:   time.Date(2025, 6, 3, 9, 30, 0, 0, time.UTC),
	}
}

func TestNewAuditRow(t *testing.T) {
	row := NewAuditRow(sampleRequest(), "acme.datatap.adverity.com", JobRecord{
		JobID:  "9001",
		Status: JobStatusStarted,
	})

	assert.Equal(t, []any{
		"2025-06-03T09:30:00Z",
		"meta",
		"674",
		"2025-06-01",
		"2025-06-02",
		"acme.datatap.adverity.com",
		"sam: meta 01.06.-02.06.25",
		"started",
		"",
		"9001",
		"U123",
		"C456",
		"",
	}, row.Values())
	assert.Len(t, row.Values(), len(AuditColumns))
	assert.True(t, row.Open())
	assert.False(t, row.NeedsNotification())
}

func TestAuditRowFromValuesPadsMissingCells(t *testing.T) {
	row := AuditRowFromValues(5, []string{"2025-06-03T09:30:00Z", "meta", "674", "", "", "", "", "RUNNING", "", "42"})

	assert.Equal(t, 5, row.Position)
	assert.Equal(t, JobStatusRunning, row.Status)
	assert.Equal(t, "42", row.JobID)
	assert.Empty(t, row.UserID)
	assert.Empty(t, row.NotifiedAt)
	assert.True(t, row.Open())
}

func TestAuditRowNeedsNotification(t *testing.T) {
	row := AuditRow{JobID: "1", Status: JobStatusDoneSuccess}
	assert.True(t, row.NeedsNotification())
	assert.False(t, row.Open())

	row.NotifiedAt = "2025-06-03T10:00:00Z"
	assert.False(t, row.NeedsNotification())

	noJob := AuditRow{Status: JobStatusStartFailed}
	assert.False(t, noJob.NeedsNotification())
	assert.False(t, noJob.Open())
}

func TestAuditRowRecordRoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	rec := JobRecord{JobID: "7", Status: JobStatusDoneFailed, ErrorDetail: "failed"}
	rec.MarkNotified(at)

	row := NewAuditRow(sampleRequest(), "x", JobRecord{JobID: "7", Status: JobStatusStarted})
	row.Apply(rec)

	got := row.Record()
	require.NotNil(t, got.NotifiedAt)
	assert.True(t, at.Equal(*got.NotifiedAt))
	assert.Equal(t, JobStatusDoneFailed, got.Status)
	assert.Equal(t, "failed", got.ErrorDetail)
}

func TestAuditRowRecordKeepsHandEditedNotifiedAt(t *testing.T) {
	row := AuditRow{JobID: "1", Status: JobStatusDoneSuccess, NotifiedAt: "yesterday"}
	rec := row.Record()
	assert.True(t, rec.Notified())
}

func TestFetchRequestRawPrompt(t *testing.T) {
	req := sampleRequest()
	req.RequesterName = ""
	assert.Equal(t, "unknown: meta 01.06.-02.06.25", req.RawPrompt())
}
