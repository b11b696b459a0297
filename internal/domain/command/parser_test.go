package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/adverity-fetchbot/internal/errors"
)

func newTestParser() *Parser {
	return NewParser(ParserOptions{
		Streams: map[string]string{"meta": "674", "Google": "701"},
		Now:     func() time.Time { return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC) },
	})
}

func TestParseValid(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		stream    string
		id        string
		start     string
		end       string
		rangeText string
	}{
		{"two digit year", "meta 01.06.-02.06.25", "meta", "674", "2025-06-01", "2025-06-02", "01.06.-02.06.25"},
		{"four digit year", "meta 01.06.-02.06.2024", "meta", "674", "2024-06-01", "2024-06-02", "01.06.-02.06.2024"},
		{"no year uses current", "meta 01.06.-02.06.", "meta", "674", "2026-06-01", "2026-06-02", "01.06.-02.06."},
		{"no trailing dots", "meta 01.06-02.06", "meta", "674", "2026-06-01", "2026-06-02", "01.06-02.06"},
		{"zero pads", "meta 1.6.-2.6.25", "meta", "674", "2025-06-01", "2025-06-02", "1.6.-2.6.25"},
		{"case insensitive stream", "GOOGLE 05.01.-06.01.26", "google", "701", "2026-01-05", "2026-01-06", "05.01.-06.01.26"},
		{"extra whitespace", "  meta   01.06.-02.06.25 ", "meta", "674", "2025-06-01", "2025-06-02", "01.06.-02.06.25"},
		{"start year ignored", "meta 28.12.24-03.01.25", "meta", "674", "2025-12-28", "2025-01-03", "28.12.24-03.01.25"},
	}
	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, Parsed{
				StreamName: tt.stream,
				StreamID:   tt.id,
				Start:      tt.start,
				End:        tt.end,
				RangeText:  tt.rangeText,
			}, got)
		})
	}
}

func TestParseSharedYearAcrossBoundary(t *testing.T) {
	got, err := newTestParser().Parse("meta 30.12.-02.01.26")
	require.NoError(t, err)
	assert.Equal(t, "2026-12-30", got.Start)
	assert.Equal(t, "2026-01-02", got.End)
}

func TestParseDateFormatErrors(t *testing.T) {
	tests := map[string]string{
		"single token":     "meta",
		"three tokens":     "meta 01.06.-02.06.25 extra",
		"missing dash":     "meta 01.06.02.06.25",
		"two dashes":       "meta 01.06.-02.06.-03.06.",
		"missing month":    "meta 01-02.06.25",
		"bad year length":  "meta 01.06.-02.06.225",
		"non numeric":      "meta aa.06.-02.06.25",
		"invalid day":      "meta 31.02.-01.03.25",
		"invalid month":    "meta 01.13.-02.13.25",
		"too many parts":   "meta 01.06.25.1-02.06.25",
		"empty end side":   "meta 01.06.-",
		"three digit day":  "meta 001.06.-02.06.25",
		"non numeric year": "meta 01.06.-02.06.xx",
	}
	p := newTestParser()
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := p.Parse(text)
			require.Error(t, err)
			assert.True(t, apperrors.IsDateFormat(err), "got %v", err)
			assert.Contains(t, apperrors.GetHint(err), "Usage:")
		})
	}
}

func TestParseUnknownStreamListsValidNames(t *testing.T) {
	_, err := newTestParser().Parse("tiktok 01.06.-02.06.25")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnknownStream(err))
	assert.Contains(t, err.Error(), "google, meta")
}

func TestUsageAndHelp(t *testing.T) {
	p := newTestParser()
	assert.Contains(t, p.Usage(), "/fetch <stream>")
	assert.Contains(t, p.Usage(), "google, meta")
	assert.Equal(t, []string{"google", "meta"}, p.StreamNames())

	assert.True(t, IsHelp(""))
	assert.True(t, IsHelp(" HELP "))
	assert.False(t, IsHelp("meta 01.06.-02.06.25"))

	empty := NewParser(ParserOptions{CommandName: "/adv"})
	assert.Contains(t, empty.Usage(), "/adv <stream>")
	assert.Contains(t, empty.Usage(), "none configured")
}
