// Package command parses the slash command text into a stream and an ISO date range.
package command

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/target/adverity-fetchbot/internal/errors"
)

const isoDate = "2006-01-02"

// HelpKeyword asks for the usage hint instead of triggering a fetch.
const HelpKeyword = "help"

// Parsed is the structured form of a valid command.
type Parsed struct {
	StreamName string
	StreamID   string
	Start      string
	End        string
	RangeText  string
}

// ParserOptions configures a Parser.
type ParserOptions struct {
	// Streams maps stream names to vendor datastream ids.
	Streams map[string]string
	// CommandName is shown in the usage hint, e.g. "/fetch".
	CommandName string
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// Parser validates `<stream> <DD.MM.-DD.MM.[YY]>` commands against a stream catalog.
type Parser struct {
	streams map[string]string
	names   []string
	command string
	now     func() time.Time
}

// NewParser builds a Parser. Stream names are matched case-insensitively.
func NewParser(opts ParserOptions) *Parser {
	streams := make(map[string]string, len(opts.Streams))
	names := make([]string, 0, len(opts.Streams))
	for name, id := range opts.Streams {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, dup := streams[key]; !dup {
			names = append(names, key)
		}
		streams[key] = strings.TrimSpace(id)
	}
	sort.Strings(names)

	command := strings.TrimSpace(opts.CommandName)
	if command == "" {
		command = "/fetch"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Parser{streams: streams, names: names, command: command, now: now}
}

// StreamNames returns the catalog names in alphabetical order.
func (p *Parser) StreamNames() []string {
	return append([]string(nil), p.names...)
}

// IsHelp reports whether text asks for usage rather than a fetch.
func IsHelp(text string) bool {
	t := strings.TrimSpace(text)
	return t == "" || strings.EqualFold(t, HelpKeyword)
}

// Usage returns the human-readable usage hint.
func (p *Parser) Usage() string {
	streams := "none configured"
	if len(p.names) > 0 {
		streams = strings.Join(p.names, ", ")
	}
	return fmt.Sprintf(
		"Usage: `%s <stream> <DD.MM.-DD.MM.YY>`, e.g. `%s meta 01.06.-02.06.25`. The year is optional. Streams: %s",
		p.command, p.command, streams,
	)
}

// Parse validates text and resolves the stream id and ISO dates.
// Both dates take the year of the end token, or the current year when it is omitted.
func (p *Parser) Parse(text string) (Parsed, error) {
	tokens := strings.Fields(text)
	if len(tokens) != 2 {
		return Parsed{}, p.dateErr("expected a stream name and a date range")
	}

	name := strings.ToLower(tokens[0])
	id, ok := p.streams[name]
	if !ok {
		return Parsed{}, apperrors.UnknownStream(tokens[0], p.names)
	}

	start, end, err := p.parseRange(tokens[1])
	if err != nil {
		return Parsed{}, err
	}

	return Parsed{
		StreamName: name,
		StreamID:   id,
		Start:      start,
		End:        end,
		RangeText:  tokens[1],
	}, nil
}

func (p *Parser) parseRange(token string) (string, string, error) {
	sides := strings.Split(token, "-")
	if len(sides) != 2 {
		return "", "", p.dateErr(fmt.Sprintf("date range %q must contain exactly one '-'", token))
	}

	startParts, err := p.splitSide(sides[0], "start")
	if err != nil {
		return "", "", err
	}
	endParts, err := p.splitSide(sides[1], "end")
	if err != nil {
		return "", "", err
	}

	year := strconv.Itoa(p.now().Year())
	if len(endParts) == 3 {
		year, err = p.resolveYear(endParts[2])
		if err != nil {
			return "", "", err
		}
	}

	start, err := p.isoDate(year, startParts[1], startParts[0], "start")
	if err != nil {
		return "", "", err
	}
	end, err := p.isoDate(year, endParts[1], endParts[0], "end")
	if err != nil {
		return "", "", err
	}
	return start, end, nil
}

// splitSide strips trailing dots and splits DD.MM[.YY] into its parts.
func (p *Parser) splitSide(side, label string) ([]string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(side), ".")
	parts := strings.Split(trimmed, ".")
	if trimmed == "" || len(parts) < 2 || len(parts) > 3 {
		return nil, p.dateErr(fmt.Sprintf("%s date %q must look like DD.MM", label, side))
	}
	return parts, nil
}

func (p *Parser) resolveYear(raw string) (string, error) {
	if !isDigits(raw) {
		return "", p.dateErr(fmt.Sprintf("year %q is not a number", raw))
	}
	switch len(raw) {
	case 2:
		return "20" + raw, nil
	case 4:
		return raw, nil
	default:
		return "", p.dateErr(fmt.Sprintf("year %q must have 2 or 4 digits", raw))
	}
}

func (p *Parser) isoDate(year, month, day, label string) (string, error) {
	if !isDigits(day) || len(day) > 2 || !isDigits(month) || len(month) > 2 {
		return "", p.dateErr(fmt.Sprintf("%s date %s.%s is not numeric", label, day, month))
	}
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	value := fmt.Sprintf("%s-%02d-%02d", year, m, d)
	if _, err := time.Parse(isoDate, value); err != nil {
		return "", p.dateErr(fmt.Sprintf("%s date %s.%s.%s is not a valid calendar date", label, day, month, year))
	}
	return value, nil
}

func (p *Parser) dateErr(reason string) error {
	return apperrors.DateFormat(reason, p.Usage())
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
