package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/target/adverity-fetchbot/config"
	"github.com/target/adverity-fetchbot/internal/domain/model"
	apperrors "github.com/target/adverity-fetchbot/internal/errors"
)

// fakeSheet is an in-memory worksheet speaking the subset of the Sheets API the client uses.
type fakeSheet struct {
	mu       sync.Mutex
	rows     [][]any // rows[0] is sheet row 1
	requests []string
	queries  []string
	failWith int
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	if opt := r.URL.Query().Get("valueInputOption"); opt != "" {
		f.queries = append(f.queries, opt)
	}

	if f.failWith != 0 {
		w.WriteHeader(f.failWith)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`)
		return
	}

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		var body struct {
			Requests []struct {
				InsertDimension struct {
					Range struct {
						SheetID    int64  `json:"sheetId"`
						Dimension  string `json:"dimension"`
						StartIndex int    `json:"startIndex"`
						EndIndex   int    `json:"endIndex"`
					} `json:"range"`
				} `json:"insertDimension"`
			} `json:"requests"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		rg := body.Requests[0].InsertDimension.Range
		idx := rg.StartIndex
		for len(f.rows) < idx {
			f.rows = append(f.rows, nil)
		}
		f.rows = append(f.rows[:idx], append([][]any{nil}, f.rows[idx:]...)...)
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodPut:
		row := rowFromRange(r.URL.Path)
		var body struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for len(f.rows) < row {
			f.rows = append(f.rows, nil)
		}
		f.rows[row-1] = body.Values[0]
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodGet:
		var values [][]any
		if len(f.rows) > 1 {
			values = f.rows[1:]
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"values": values})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// rowFromRange extracts the first row number from ".../values/Tab!A7:M7".
func rowFromRange(path string) int {
	rng := path[strings.LastIndex(path, "!")+1:]
	rng = strings.TrimPrefix(rng, "A")
	n, _ := strconv.Atoi(rng[:strings.Index(rng, ":")])
	return n
}

func newTestClient(t *testing.T, fake *fakeSheet) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client, err := NewClient(context.Background(), Options{
		Config: config.SheetsConfig{
			SpreadsheetID: "sheet-1",
			Tab:           "Log",
			GID:           42,
			APIURL:        srv.URL,
		},
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return client
}

func row(jobID string, status model.JobStatus) model.AuditRow {
	return model.AuditRow{
		Timestamp: "2025-06-03T09:30:00Z",
		Stream:    "meta",
		Status:    status,
		JobID:     jobID,
	}
}

func TestNewClientRequiresSpreadsheet(t *testing.T) {
	_, err := NewClient(context.Background(), Options{HTTPClient: http.DefaultClient})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigurationMissing(err))
}

func TestInsertRowAddsBelowHeader(t *testing.T) {
	fake := &fakeSheet{}
	client := newTestClient(t, fake)
	ctx := context.Background()

	require.NoError(t, client.WriteHeader(ctx))
	require.NoError(t, client.InsertRow(ctx, row("older", model.JobStatusStarted)))
	require.NoError(t, client.InsertRow(ctx, row("newer", model.JobStatusStarted)))

	rows, err := client.ListRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "newer", rows[0].JobID)
	assert.Equal(t, 2, rows[0].Position)
	assert.Equal(t, "older", rows[1].JobID)
	assert.Equal(t, 3, rows[1].Position)
	assert.Equal(t, "Timestamp", fake.rows[0][0])

	assert.Contains(t, fake.requests, "POST /v4/spreadsheets/sheet-1:batchUpdate")
	assert.Contains(t, fake.requests, "PUT /v4/spreadsheets/sheet-1/values/Log!A2:M2")
	assert.Contains(t, fake.requests, "GET /v4/spreadsheets/sheet-1/values/Log!A2:M")
	for _, opt := range fake.queries {
		assert.Equal(t, "RAW", opt)
	}
	assert.Len(t, fake.queries, 3)
}

func TestFindAndUpdateRow(t *testing.T) {
	fake := &fakeSheet{}
	client := newTestClient(t, fake)
	ctx := context.Background()

	require.NoError(t, client.WriteHeader(ctx))
	require.NoError(t, client.InsertRow(ctx, row("a", model.JobStatusStarted)))
	require.NoError(t, client.InsertRow(ctx, row("b", model.JobStatusStarted)))

	found, err := client.FindByJobID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, found.Position)

	found.Status = model.JobStatusDoneSuccess
	found.NotifiedAt = "2025-06-03T10:00:00Z"
	require.NoError(t, client.UpdateRow(ctx, found))

	again, err := client.FindByJobID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusDoneSuccess, again.Status)
	assert.Equal(t, "2025-06-03T10:00:00Z", again.NotifiedAt)

	_, err = client.FindByJobID(ctx, "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateRowRejectsHeaderPosition(t *testing.T) {
	client := newTestClient(t, &fakeSheet{})
	err := client.UpdateRow(context.Background(), model.AuditRow{Position: 1})
	require.Error(t, err)
}

func TestAPIErrorsCarryGoogleMessage(t *testing.T) {
	client := newTestClient(t, &fakeSheet{failWith: http.StatusForbidden})

	_, err := client.ListRows(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "PERMISSION_DENIED", apiErr.Status)
	assert.Contains(t, err.Error(), "does not have permission")

	var gerr *googleapi.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusForbidden, gerr.Code)
}

func TestQuoteTab(t *testing.T) {
	assert.Equal(t, "Sheet1", quoteTab("Sheet1"))
	assert.Equal(t, "'Fetch Log'", quoteTab("Fetch Log"))
	assert.Equal(t, "'Bob''s'", quoteTab("Bob's"))
}

func TestStringCells(t *testing.T) {
	assert.Equal(t, []string{"a", "674", ""}, stringCells([]any{"a", float64(674), nil}))
}
