package model

import "time"

// FetchRequest is a parsed slash command. It is created once per command and never mutated.
type FetchRequest struct {
	ID            string    `json:"id"`
	StreamName    string    `json:"stream_name"`
	StreamID      string    `json:"stream_id"`
	Start         string    `json:"start"`
	End           string    `json:"end"`
	RangeText     string    `json:"range_text"`
	RawText       string    `json:"raw_text"`
	RequesterID   string    `json:"requester_id"`
	RequesterName string    `json:"requester_name"`
	ChannelID     string    `json:"channel_id"`
	ResponseURL   string    `json:"response_url,omitempty"`
	RequestedAt   time.Time `json:"requested_at"`
}

// RawPrompt renders the requester and original text the way the audit log stores them.
func (r FetchRequest) RawPrompt() string {
	name := r.RequesterName
	if name == "" {
		name = "unknown"
	}
	return name + ": " + r.RawText
}

// SlashCommand carries the form fields Slack posts for a slash command.
type SlashCommand struct {
	Token       string
	Text        string
	UserName    string
	UserID      string
	ChannelID   string
	ResponseURL string
}
