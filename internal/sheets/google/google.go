package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"zent/internal/ledger"
	"zent/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const DefaultSheetName = "Movimientos"

// Client mirrors movements into one sheet of a spreadsheet. Column A holds
// the source event id and is the key for replacing and deleting rows.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	mu            sync.Mutex
	sheetID       int64
	sheetIDLoaded bool
	headerChecked bool
}

var _ sheets.Mirror = (*Client)(nil)

// New creates a Sheets client. A service account from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS wins over a stored OAuth user token.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, sheetName), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		ts, err := userTokenSource(ctx)
		if err != nil {
			return nil, fmt.Errorf("oauth credentials: %w", err)
		}
		if ts == nil {
			return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS, or run zentctl sheets-auth)")
		}
		slog.InfoContext(ctx, "Using OAuth user credentials", "token_file", TokenFile())
		return gsheet.NewService(ctx, goption.WithTokenSource(ts), goption.WithHTTPClient(newHTTPClientWithPooling()))
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling
// and bounded timeouts for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// UpsertMovements deletes the rows of sourceID, then appends one row per leg.
func (c *Client) UpsertMovements(ctx context.Context, sourceID string, movements []ledger.Movement) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := c.ensureHeader(ctx); err != nil {
		return "", err
	}
	if _, err := c.DeleteMovements(ctx, sourceID); err != nil {
		return "", err
	}
	if len(movements) == 0 {
		return "", nil
	}

	values := make([][]any, 0, len(movements))
	for _, m := range movements {
		values = append(values, sheets.RowFor(m).Values())
	}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.columns(), &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append rows to sheet %s: %w", c.sheetName, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Movements mirrored to Google Sheets",
		"source_id", sourceID,
		"rows", len(values),
		"range", ref)
	return ref, nil
}

// DeleteMovements removes the rows whose first cell equals sourceID.
func (c *Client) DeleteMovements(ctx context.Context, sourceID string) (int, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, fmt.Sprintf("%s!A:A", c.sheetName)).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read ids from sheet %s: %w", c.sheetName, err)
	}
	indices := matchingRows(resp.Values, sourceID)
	if len(indices) == 0 {
		return 0, nil
	}

	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return 0, err
	}

	// Bottom-up so earlier deletions do not shift later indices.
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	reqs := make([]*gsheet.Request, 0, len(indices))
	for _, i := range indices {
		reqs = append(reqs, &gsheet.Request{DeleteDimension: &gsheet.DeleteDimensionRequest{
			Range: &gsheet.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "ROWS",
				StartIndex: int64(i),
				EndIndex:   int64(i + 1),
			},
		}})
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("delete rows from sheet %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Movements removed from Google Sheets", "source_id", sourceID, "rows", len(indices))
	return len(indices), nil
}

// ListRows reads the mirrored rows, skipping the header and unreadable rows.
func (c *Client) ListRows(ctx context.Context) ([]sheets.Row, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.columns()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.columns(), err)
	}
	return parseRows(ctx, resp.Values), nil
}

func (c *Client) ensureHeader(ctx context.Context) error {
	c.mu.Lock()
	checked := c.headerChecked
	c.mu.Unlock()
	if checked {
		return nil
	}

	rng := fmt.Sprintf("%s!A1:%s1", c.sheetName, lastColumn())
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of sheet %s: %w", c.sheetName, err)
	}
	if len(resp.Values) == 0 {
		header := make([]any, len(sheets.Header))
		for i, h := range sheets.Header {
			header[i] = h
		}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write header of sheet %s: %w", c.sheetName, err)
		}
	}

	c.mu.Lock()
	c.headerChecked = true
	c.mu.Unlock()
	return nil
}

// resolveSheetID looks up the numeric id of the sheet once per client.
func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	if c.sheetIDLoaded {
		id := c.sheetID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			c.mu.Lock()
			c.sheetID, c.sheetIDLoaded = sh.Properties.SheetId, true
			c.mu.Unlock()
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}

func (c *Client) columns() string {
	return fmt.Sprintf("%s!A:%s", c.sheetName, lastColumn())
}

func lastColumn() string {
	return string(rune('A' + len(sheets.Header) - 1))
}
