// Package google mirrors stored outcomes and incomes into a Google
// spreadsheet, one row per record.
package google

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"moneygr/internal/core"
	"moneygr/internal/log"
)

type Config struct {
	SpreadsheetID string
	// OutcomeSheet and IncomeSheet are base names; the record's year is
	// prefixed unless the name already starts with one.
	OutcomeSheet    string
	IncomeSheet     string
	CredentialsFile string
}

// Client appends rows through the Sheets values API.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	outcomeSheet  string
	incomeSheet   string
	logger        *log.Logger
}

// New builds a client from cfg. Without a credentials file, Application
// Default Credentials are used. Extra options are appended last, which lets
// tests point the client at a local endpoint.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.Discard()
	}
	base := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		base = append(base, goption.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := gsheet.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	c := &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		outcomeSheet:  orDefault(cfg.OutcomeSheet, "Outcomes"),
		incomeSheet:   orDefault(cfg.IncomeSheet, "Incomes"),
		logger:        logger.WithComponent(log.ComponentSheets),
	}
	c.logger.InfoContext(ctx, "Google Sheets mirror ready",
		"spreadsheet_id", c.spreadsheetID,
		"outcome_sheet", c.outcomeSheet,
		"income_sheet", c.incomeSheet)
	return c, nil
}

// AppendOutcome writes one outcome row and returns the updated range.
func (c *Client) AppendOutcome(ctx context.Context, id int64, o core.Outcome) (string, error) {
	sheet := yearPrefixedName(c.outcomeSheet, o.Date.Year())
	return c.append(ctx, sheet, outcomeRow(id, o))
}

// AppendIncome writes one income row and returns the updated range.
func (c *Client) AppendIncome(ctx context.Context, id int64, i core.Income) (string, error) {
	sheet := yearPrefixedName(c.incomeSheet, i.Date.Year())
	return c.append(ctx, sheet, incomeRow(id, i))
}

func (c *Client) append(ctx context.Context, sheet string, row []any) (string, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Row appended", "range", ref)
	return ref, nil
}

// outcomeRow lays out: date, name, amount, quantity, total, category,
// parent category, paid by, credit card, record id.
func outcomeRow(id int64, o core.Outcome) []any {
	return []any{
		o.Date.String(),
		o.Name,
		o.Amount,
		o.Quantity,
		o.LineTotal(),
		o.CategoryID,
		o.ParentCategoryID,
		o.OutcomeBy,
		o.CreditCard,
		id,
	}
}

// incomeRow lays out: date, name, amount, category, received by, record id.
func incomeRow(id int64, i core.Income) []any {
	return []any{i.Date.String(), i.Name, i.Amount, i.CategoryID, i.IncomeBy, id}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
