package model

// TriggerRequest asks the vendor to fetch a fixed date range for one datastream.
type TriggerRequest struct {
	StreamID    string `json:"-"`
	Start       string `json:"start"`
	End         string `json:"end"`
	CallbackURL string `json:"callback,omitempty"`
}

// TriggerResult describes an accepted trigger call.
type TriggerResult struct {
	JobID      string
	HTTPStatus int
	// Payload is the response body truncated for logs and the audit row.
	Payload string
	// SoftTimeout is set when the vendor reported an operation timeout but still returned a job id.
	SoftTimeout bool
}

// StatusResult is one observation of a vendor job.
type StatusResult struct {
	JobID string
	// Label is the normalised vendor state label, e.g. "running" or "success".
	Label string
}

// Classify maps the observed label to a JobStatus; see ClassifyVendorLabel.
func (r StatusResult) Classify() (JobStatus, bool) {
	return ClassifyVendorLabel(r.Label)
}

// ResponseType controls who sees a chat message.
type ResponseType string

const (
	// ResponseEphemeral is visible only to the requester.
	ResponseEphemeral ResponseType = "ephemeral"
	// ResponseInChannel is visible to everyone in the channel.
	ResponseInChannel ResponseType = "in_channel"
)

// ChatMessage is the JSON body of a slash command response or response_url post.
type ChatMessage struct {
	ResponseType    ResponseType `json:"response_type"`
	Text            string       `json:"text"`
	ReplaceOriginal bool         `json:"replace_original,omitempty"`
}
