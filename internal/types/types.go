// Package types defines core data structures for mailsheets.
package types

// Email holds the fields extracted from a Gmail message.
// Every field is empty when the source message does not carry it.
type Email struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

// Row is one spreadsheet row, in Email field order.
type Row [4]string

// Row converts the email into the row appended to the sheet.
func (e Email) Row() Row {
	return Row{e.From, e.Subject, e.Date, e.Content}
}

// Values returns the row as the generic cell slice the Sheets API expects.
func (r Row) Values() []interface{} {
	out := make([]interface{}, len(r))
	for i, v := range r {
		out[i] = v
	}
	return out
}

// Label IDs used when listing and marking messages.
const (
	LabelInbox  = "INBOX"
	LabelUnread = "UNREAD"
)

// SyncResult holds the result of a single pass over the unread inbox.
type SyncResult struct {
	RunID          string `json:"run_id"`
	Unread         int    `json:"unread"`
	Processed      int    `json:"processed"`
	DryRun         bool   `json:"dry_run,omitempty"`
	CheckpointFrom string `json:"checkpoint_from,omitempty"`
	CheckpointTo   string `json:"checkpoint_to,omitempty"`
	Error          string `json:"error,omitempty"`
}
