package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"payroll/internal/core"
	applog "payroll/internal/log"
	ports "payroll/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const DefaultSheetName = "Payroll"

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID string
	// SheetName is the base title; each month gets "<SheetName> YYYY-MM".
	SheetName string
	// CredentialsJSON takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
	// OAuthTokenFile switches to a user token saved by "payrollctl sheets-auth".
	OAuthTokenFile  string
	OAuthClientJSON string
	OAuthClientFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

// Ensure interface conformance
var _ ports.ReportWriter = (*Client)(nil)

// New creates a Sheets client authenticated with a user token when one is
// configured and with a service account otherwise.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string) *Client {
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = DefaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: strings.TrimSpace(spreadsheetID), sheetBase: strings.TrimSpace(sheetBase)}
}

// newSheetsService falls back to GOOGLE_APPLICATION_CREDENTIALS when the
// config carries no service account.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	if strings.TrimSpace(cfg.OAuthTokenFile) != "" {
		ts, err := userTokenSource(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger(ctx).InfoContext(ctx, "Creating Google Sheets service with OAuth user token", "token_file", cfg.OAuthTokenFile)
		return gsheet.NewService(ctx, goption.WithTokenSource(ts))
	}

	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	logger(ctx).InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// SheetTitle is the tab holding the report of p.
func (c *Client) SheetTitle(p core.Period) string {
	return fmt.Sprintf("%s %s", c.sheetBase, p)
}

// WriteReport replaces the contents of the period's tab, creating it if needed.
func (c *Client) WriteReport(ctx context.Context, r core.Report) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	title := c.SheetTitle(r.Period)

	if err := c.ensureSheet(ctx, title); err != nil {
		return err
	}

	rng := quoteSheet(title)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", title, err)
	}

	vr := &gsheet.ValueRange{Values: ports.Rows(r)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", title, err)
	}

	logger(ctx).InfoContext(ctx, "Report written to sheet", applog.FieldSheet, title, applog.FieldCount, len(r.Rows))
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	logger(ctx).InfoContext(ctx, "Created report sheet", applog.FieldSheet, title)
	return nil
}

func logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentSheets)
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
