package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"mineplan/internal/core"
	ports "mineplan/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu   sync.Mutex
	tabs map[string]struct{}
}

// Ensure interface conformance
var _ ports.PlanExporter = (*Client)(nil)

// NewFromEnv creates a Sheets client for spreadsheetID using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, spreadsheetID string) (*Client, error) {
	creds, err := credentialsFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	return New(ctx, spreadsheetID,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// New creates a Sheets client with explicit client options.
func New(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		tabs:          make(map[string]struct{}),
	}, nil
}

func credentialsFromEnv(ctx context.Context) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportMonth writes the header and every day of plan to its month tab,
// creating the tab on first use. Old rows are cleared first so a shorter
// month leaves nothing behind.
func (c *Client) ExportMonth(ctx context.Context, plan core.MonthlyPlan) error {
	tab := ports.TabName(plan.Period())
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}
	if err := c.clear(ctx, tab); err != nil {
		return err
	}

	vr := &gsheet.ValueRange{Values: ports.Rows(plan)}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1(tab, "A1"), vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", tab, err)
	}

	slog.InfoContext(ctx, "Exported plan to sheet",
		"period", plan.Period(),
		"sheet", tab,
		"rows", len(vr.Values))
	return nil
}

// ClearMonth empties the month tab if it exists.
func (c *Client) ClearMonth(ctx context.Context, period string) error {
	tab := ports.TabName(period)
	ok, err := c.hasTab(ctx, tab)
	if err != nil {
		return err
	}
	if !ok {
		slog.DebugContext(ctx, "Sheet not found, nothing to clear", "sheet", tab)
		return nil
	}
	return c.clear(ctx, tab)
}

func (c *Client) clear(ctx context.Context, tab string) error {
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, a1(tab, ""), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", tab, err)
	}
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	ok, err := c.hasTab(ctx, tab)
	if err != nil || ok {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: tab},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", tab, err)
	}
	slog.InfoContext(ctx, "Created sheet", "sheet", tab)

	c.mu.Lock()
	c.tabs[tab] = struct{}{}
	c.mu.Unlock()
	return nil
}

// hasTab answers from the local set of known tabs, then from the spreadsheet.
func (c *Client) hasTab(ctx context.Context, tab string) (bool, error) {
	c.mu.Lock()
	_, known := c.tabs[tab]
	c.mu.Unlock()
	if known {
		return true, nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.tabs[sh.Properties.Title] = struct{}{}
		}
	}
	_, known = c.tabs[tab]
	return known, nil
}

// a1 builds an A1 range for a tab whose title may contain spaces.
func a1(tab, cell string) string {
	quoted := "'" + strings.ReplaceAll(tab, "'", "''") + "'"
	if cell == "" {
		return quoted
	}
	return quoted + "!" + cell
}
