// Package sheets stores the audit log in a Google Sheet through the Sheets v4 API.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/target/adverity-fetchbot/config"
	"github.com/target/adverity-fetchbot/internal/core"
	"github.com/target/adverity-fetchbot/internal/domain/model"
	apperrors "github.com/target/adverity-fetchbot/internal/errors"
)

const (
	lastColumn = "M"
	// firstDataRow is the row directly below the header.
	firstDataRow = 2
)

// Options configures a Client.
type Options struct {
	Config config.SheetsConfig
	// HTTPClient must already be authorised; see NewAuthorizedClient.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client reads and writes audit rows in one worksheet.
type Client struct {
	spreadsheetID string
	tab           string
	gid           int64
	svc           *gsheets.Service
	logger        *slog.Logger
}

var _ core.AuditLog = (*Client)(nil)

// NewClient builds a Client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Config.SpreadsheetID == "" {
		return nil, apperrors.ConfigurationMissing("GOOGLE_SHEET_ID")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("sheets http client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clientOpts := []option.ClientOption{option.WithHTTPClient(opts.HTTPClient)}
	if base := strings.TrimRight(opts.Config.APIURL, "/"); base != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(base+"/"))
	}
	svc, err := gsheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	tab := opts.Config.Tab
	if tab == "" {
		tab = "Sheet1"
	}
	return &Client{
		spreadsheetID: opts.Config.SpreadsheetID,
		tab:           tab,
		gid:           opts.Config.GID,
		svc:           svc,
		logger:        logger.With("component", "sheets"),
	}, nil
}

// InsertRow inserts an empty row below the header and writes row into it.
func (c *Client) InsertRow(ctx context.Context, row model.AuditRow) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			InsertDimension: &gsheets.InsertDimensionRequest{
				Range: &gsheets.DimensionRange{
					SheetId:         c.gid,
					Dimension:       "ROWS",
					StartIndex:      firstDataRow - 1,
					EndIndex:        firstDataRow,
					ForceSendFields: []string{"SheetId"},
				},
				InheritFromBefore: false,
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("insert row: %w", wrapAPIError(err))
	}
	row.Position = firstDataRow
	if err := c.writeRow(ctx, row.Position, row.Values()); err != nil {
		return fmt.Errorf("write inserted row: %w", err)
	}
	return nil
}

// UpdateRow rewrites the cells of an existing row.
func (c *Client) UpdateRow(ctx context.Context, row model.AuditRow) error {
	if row.Position < firstDataRow {
		return apperrors.Validationf("invalid audit row position %d", row.Position)
	}
	if err := c.writeRow(ctx, row.Position, row.Values()); err != nil {
		return fmt.Errorf("update row %d: %w", row.Position, err)
	}
	return nil
}

// WriteHeader writes the column names into the first row.
func (c *Client) WriteHeader(ctx context.Context) error {
	header := make([]any, len(model.AuditColumns))
	for i, name := range model.AuditColumns {
		header[i] = name
	}
	if err := c.writeRow(ctx, 1, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// ListRows returns every data row, newest first as stored.
func (c *Client) ListRows(ctx context.Context) ([]model.AuditRow, error) {
	rng := c.a1(fmt.Sprintf("A%d:%s", firstDataRow, lastColumn))
	vr, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", wrapAPIError(err))
	}

	rows := make([]model.AuditRow, 0, len(vr.Values))
	for i, cells := range vr.Values {
		rows = append(rows, model.AuditRowFromValues(i+firstDataRow, stringCells(cells)))
	}
	return rows, nil
}

// FindByJobID returns the first row whose JobId matches.
func (c *Client) FindByJobID(ctx context.Context, jobID string) (model.AuditRow, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return model.AuditRow{}, apperrors.Validation("job id is required")
	}
	rows, err := c.ListRows(ctx)
	if err != nil {
		return model.AuditRow{}, err
	}
	for _, row := range rows {
		if row.JobID == jobID {
			return row, nil
		}
	}
	return model.AuditRow{}, apperrors.NotFoundf("no audit row for job %s", jobID)
}

func (c *Client) writeRow(ctx context.Context, position int, values []any) error {
	rng := c.a1(fmt.Sprintf("A%d:%s%d", position, lastColumn, position))
	vr := &gsheets.ValueRange{
		Range:          rng,
		MajorDimension: "ROWS",
		Values:         [][]any{values},
	}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return wrapAPIError(err)
}

// a1 prefixes a cell range with the worksheet title, quoting it when needed.
func (c *Client) a1(cells string) string {
	return quoteTab(c.tab) + "!" + cells
}

func quoteTab(tab string) string {
	for _, r := range tab {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
		if !isAlnum {
			return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
		}
	}
	return tab
}

// APIError is a non-2xx answer from the Sheets API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Err        *googleapi.Error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sheets api %d", e.StatusCode)
	}
	return fmt.Sprintf("sheets api %d %s: %s", e.StatusCode, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// wrapAPIError turns a googleapi.Error into an APIError; other errors pass through.
func wrapAPIError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	apiErr := &APIError{StatusCode: gerr.Code, Message: gerr.Message, Err: gerr}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(gerr.Body)
	}
	apiErr.Status = errorStatus(gerr.Body)
	return apiErr
}

// errorStatus reads the canonical status ("PERMISSION_DENIED") from a Google error body.
func errorStatus(body string) string {
	var env struct {
		Error struct {
			Status string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(body), &env) != nil {
		return ""
	}
	return env.Error.Status
}

func stringCells(cells []any) []string {
	out := make([]string, len(cells))
	for i, v := range cells {
		switch t := v.(type) {
		case nil:
		case string:
			out[i] = t
		default:
			out[i] = fmt.Sprint(t)
		}
	}
	return out
}
