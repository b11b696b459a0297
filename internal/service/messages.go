package service

import (
	"fmt"
	"strings"

	"github.com/target/adverity-fetchbot/internal/domain/model"
	apperrors "github.com/target/adverity-fetchbot/internal/errors"
)

// Subject identifies the job a message is about, independent of whether it came
// from a live request or from an audit row.
type Subject struct {
	JobID     string
	Stream    string
	Start     string
	End       string
	Requester string
	Target    Target
}

// SubjectFromRequest builds a Subject for a live request.
func SubjectFromRequest(req model.FetchRequest, jobID string) Subject {
	return Subject{
		JobID:     jobID,
		Stream:    req.StreamName,
		Start:     req.Start,
		End:       req.End,
		Requester: req.RequesterName,
		Target:    TargetForRequest(req),
	}
}

// SubjectFromRow builds a Subject from an audit row. Rows carry no response url,
// so delivery falls back to the Web API methods.
func SubjectFromRow(row model.AuditRow) Subject {
	return Subject{
		JobID:  row.JobID,
		Stream: row.Stream,
		Start:  row.Start,
		End:    row.End,
		Target: Target{ChannelID: row.ChannelID, UserID: row.UserID},
	}
}

// DateRange renders the resolved range, e.g. "2025-06-01 to 2025-06-02".
func (s Subject) DateRange() string {
	switch {
	case s.Start == "" && s.End == "":
		return "unknown range"
	case s.Start == s.End:
		return s.Start
	default:
		return s.Start + " to " + s.End
	}
}

// AckText is the immediate slash command acknowledgement.
func AckText(req model.FetchRequest) string {
	s := SubjectFromRequest(req, "")
	return fmt.Sprintf(
		"⏳ Request for *%s* (%s) accepted. The job is being started and monitored. "+
			"You will get a message when it finishes.",
		s.Stream, s.DateRange(),
	)
}

// StartFailedText tells the requester the vendor never produced a job.
func StartFailedText(s Subject, err error) string {
	return fmt.Sprintf("❌ Could not start the Adverity job for *%s* (%s): %s",
		s.Stream, s.DateRange(), apperrors.GetMessage(err))
}

// FinalText renders the terminal notice for status. label is the vendor's own
// wording and may be empty when resuming from the sheet.
func FinalText(s Subject, status model.JobStatus, label, link string) string {
	var b strings.Builder
	if status.IsSuccess() {
		b.WriteString("✅ *Fetch succeeded!*\n")
	} else {
		b.WriteString("❌ *Fetch failed!*\n")
	}
	fmt.Fprintf(&b, "📊 Stream: %s\n", s.Stream)
	fmt.Fprintf(&b, "📅 Range: %s\n", s.DateRange())
	if !status.IsSuccess() {
		if label == "" {
			label = string(status)
		}
		fmt.Fprintf(&b, "📉 Status: `%s`\n", label)
	}
	fmt.Fprintf(&b, "🆔 Job: `%s`", s.JobID)
	if link != "" {
		fmt.Fprintf(&b, "\n<%s|Open in Adverity>", link)
	}
	return b.String()
}

// TimeoutText is sent when inline polling gives up before the job finished.
func TimeoutText(s Subject, link string) string {
	text := fmt.Sprintf("⌛️ *Fetch monitoring timed out* for stream *%s* (%s).\n"+
		"Job `%s` is probably still running. Please check manually.",
		s.Stream, s.DateRange(), s.JobID)
	if link != "" {
		text += fmt.Sprintf(" <%s|Open in Adverity>", link)
	}
	return text
}

// RejectionText explains why a command was refused. usage is appended when the
// error carries no hint of its own.
func RejectionText(err error, usage string) string {
	hint := apperrors.GetHint(err)
	if hint == "" {
		hint = usage
	}
	text := "❌ " + apperrors.GetMessage(err)
	if hint != "" {
		text += "\n" + hint
	}
	return text
}

// BusyText is returned when the service cannot accept background work.
const BusyText = "⚠️ The fetch bot is restarting, please try again in a minute."
