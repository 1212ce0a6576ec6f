// Package sheets appends parsed emails to a Google Sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"

	sh "google.golang.org/api/sheets/v4"

	"github.com/daviddao/mailsheets/internal/types"
)

// DefaultRange is the append target when none is configured.
const DefaultRange = "Sheet1!A:D"

// Client appends rows to one fixed spreadsheet range.
type Client struct {
	svc           *sh.Service
	spreadsheetID string
	rng           string
}

// New returns a Client for the given spreadsheet and A1 range.
func New(svc *sh.Service, spreadsheetID, rng string) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet ID is required")
	}
	if rng == "" {
		rng = DefaultRange
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, rng: rng}, nil
}

// Range returns the A1 range rows are appended to.
func (c *Client) Range() string {
	return c.rng
}

// AppendRow appends one row. Values are stored literally, never evaluated
// as formulas.
func (c *Client) AppendRow(ctx context.Context, row types.Row) error {
	vr := &sh.ValueRange{Values: [][]interface{}{row.Values()}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", c.rng, err)
	}
	return nil
}
