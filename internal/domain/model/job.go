// Package model defines the core data types shared by the fetch bot.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobStatus represents the lifecycle state of a triggered fetch job as recorded in the audit log.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobStatus string

const (
	// JobStatusStarted indicates the vendor accepted the fetch and returned a job id.
	JobStatusStarted JobStatus = "started"
	// JobStatusRunning indicates at least one poll observed a non-terminal vendor state.
	JobStatusRunning JobStatus = "running"
	// JobStatusDoneSuccess indicates the vendor reported success.
	JobStatusDoneSuccess JobStatus = "done_success"
	// JobStatusDoneFailed indicates the vendor reported failure.
	JobStatusDoneFailed JobStatus = "done_failed"
	// JobStatusDoneCancelled indicates the job was cancelled in the vendor UI.
	JobStatusDoneCancelled JobStatus = "done_cancelled"
	// JobStatusDoneDiscarded indicates the vendor discarded the job.
	JobStatusDoneDiscarded JobStatus = "done_discarded"
	// JobStatusStartFailed indicates the trigger call never produced a job id.
	JobStatusStartFailed JobStatus = "start_failed"
)

// ErrTerminalState is returned when a transition would leave a terminal state.
var ErrTerminalState = errors.New("job is already in a terminal state")

// UnmarshalText implements encoding.TextUnmarshaler for JobStatus.
func (s *JobStatus) UnmarshalText(text []byte) error {
	v := JobStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if v.Valid() {
		*s = v
		return nil
	}
	return fmt.Errorf("invalid JobStatus: %q", v)
}

// Valid returns true if the JobStatus is known.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusStarted, JobStatusRunning, JobStatusDoneSuccess, JobStatusDoneFailed,
		JobStatusDoneCancelled, JobStatusDoneDiscarded, JobStatusStartFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition can occur from s.
func (s JobStatus) IsTerminal() bool {
	return strings.HasPrefix(string(s), "done_") || s == JobStatusStartFailed
}

// IsSuccess reports whether s is the successful terminal state.
func (s JobStatus) IsSuccess() bool {
	return s == JobStatusDoneSuccess
}

// vendorLabels maps normalised vendor state labels to terminal statuses.
// Labels missing from this table are treated as still running.
var vendorLabels = map[string]JobStatus{
	"success":    JobStatusDoneSuccess,
	"successful": JobStatusDoneSuccess,
	"succeeded":  JobStatusDoneSuccess,
	"completed":  JobStatusDoneSuccess,
	"finished":   JobStatusDoneSuccess,
	"done":       JobStatusDoneSuccess,
	"failed":     JobStatusDoneFailed,
	"failure":    JobStatusDoneFailed,
	"error":      JobStatusDoneFailed,
	"errored":    JobStatusDoneFailed,
	"cancelled":  JobStatusDoneCancelled,
	"canceled":   JobStatusDoneCancelled,
	"discarded":  JobStatusDoneDiscarded,
}

// NormalizeVendorLabel lower-cases and trims a vendor state label.
func NormalizeVendorLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// ClassifyVendorLabel maps a vendor status label to a JobStatus.
// The boolean is true when the label is terminal; non-terminal labels
// (pending, running, scheduled and anything unrecognised) map to JobStatusRunning.
func ClassifyVendorLabel(label string) (JobStatus, bool) {
	if status, ok := vendorLabels[NormalizeVendorLabel(label)]; ok {
		return status, true
	}
	return JobStatusRunning, false
}

// JobRecord tracks one vendor job. It maps 1:1 to a FetchRequest.
type JobRecord struct {
	JobID       string     `json:"job_id,omitempty"`
	Status      JobStatus  `json:"status"`
	ErrorDetail string     `json:"error_detail,omitempty"`
	NotifiedAt  *time.Time `json:"notified_at,omitempty"`
}

// Transition moves the record to status. Terminal states are absorbing:
// leaving one returns ErrTerminalState, re-entering the same state is a no-op.
// The returned bool reports whether the status changed.
func (r *JobRecord) Transition(to JobStatus, detail string) (bool, error) {
	if !to.Valid() {
		return false, fmt.Errorf("invalid transition target %q", to)
	}
	if r.Status == to {
		return false, nil
	}
	if r.Status.IsTerminal() {
		return false, fmt.Errorf("%w: %s -> %s", ErrTerminalState, r.Status, to)
	}
	r.Status = to
	if detail != "" {
		r.ErrorDetail = detail
	}
	return true, nil
}

// MarkNotified stamps the time a terminal notification was delivered.
func (r *JobRecord) MarkNotified(at time.Time) {
	t := at.UTC()
	r.NotifiedAt = &t
}

// Notified reports whether a terminal notification has been delivered.
func (r *JobRecord) Notified() bool {
	return r.NotifiedAt != nil
}
