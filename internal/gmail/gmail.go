// Package gmail wraps the Gmail API calls mailsheets needs: listing unread
// inbox messages, fetching them in full and clearing the UNREAD label.
package gmail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	gm "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/daviddao/mailsheets/internal/types"
)

// DefaultUser is the Gmail user ID meaning "the authenticated user".
const DefaultUser = "me"

// CheckpointStore persists the single last-processed checkpoint value.
type CheckpointStore interface {
	Checkpoint(ctx context.Context) (string, bool, error)
	SetCheckpoint(ctx context.Context, token string) error
}

// Client is the mailbox side of a sync run.
type Client struct {
	svc   *gm.Service
	user  string
	limit int
	store CheckpointStore
}

// Option configures a Client.
type Option func(*Client)

// WithUser sets the Gmail user ID. Empty keeps "me".
func WithUser(user string) Option {
	return func(c *Client) {
		if user != "" {
			c.user = user
		}
	}
}

// WithLimit caps how many unread IDs ListUnread collects. Zero means no cap.
func WithLimit(n int) Option {
	return func(c *Client) { c.limit = n }
}

// WithCheckpointStore sets where the checkpoint is loaded from and saved to.
func WithCheckpointStore(s CheckpointStore) Option {
	return func(c *Client) { c.store = s }
}

// New returns a Client backed by an authorized Gmail service.
func New(svc *gm.Service, opts ...Option) *Client {
	c := &Client{svc: svc, user: DefaultUser}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromHTTPClient builds the Gmail service on an authorized HTTP client.
// clientOpts are appended after option.WithHTTPClient(hc).
func NewFromHTTPClient(ctx context.Context, hc *http.Client, clientOpts []option.ClientOption, opts ...Option) (*Client, error) {
	svc, err := gm.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(hc)}, clientOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return New(svc, opts...), nil
}

var errLimitReached = errors.New("limit reached")

// ListUnread returns the IDs of unread inbox messages in listing order,
// following every result page.
func (c *Client) ListUnread(ctx context.Context) ([]string, error) {
	call := c.svc.Users.Messages.List(c.user).
		LabelIds(types.LabelInbox, types.LabelUnread).
		Fields(googleapi.Field("messages/id"), googleapi.Field("nextPageToken"))
	if c.limit > 0 && c.limit < 500 {
		call = call.MaxResults(int64(c.limit))
	}

	ids := []string{}
	err := call.Pages(ctx, func(resp *gm.ListMessagesResponse) error {
		for _, msg := range resp.Messages {
			ids = append(ids, msg.Id)
			if c.limit > 0 && len(ids) >= c.limit {
				return errLimitReached
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, fmt.Errorf("list unread messages: %w", err)
	}
	return ids, nil
}

// FetchFull fetches a complete message (headers, parts, bodies) by ID.
func (c *Client) FetchFull(ctx context.Context, id string) (*gm.Message, error) {
	msg, err := c.svc.Users.Messages.Get(c.user, id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return msg, nil
}

// MarkRead removes the UNREAD label. Removing a label the message does not
// carry succeeds.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	req := &gm.ModifyMessageRequest{RemoveLabelIds: []string{types.LabelUnread}}
	if _, err := c.svc.Users.Messages.Modify(c.user, id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("mark message %s read: %w", id, err)
	}
	return nil
}

// LoadCheckpoint returns the saved checkpoint. ok is false when none exists
// or no store is configured.
func (c *Client) LoadCheckpoint(ctx context.Context) (token string, ok bool, err error) {
	if c.store == nil {
		return "", false, nil
	}
	return c.store.Checkpoint(ctx)
}

// SaveCheckpoint stores the checkpoint. Without a store it does nothing.
func (c *Client) SaveCheckpoint(ctx context.Context, token string) error {
	if c.store == nil {
		return nil
	}
	return c.store.SetCheckpoint(ctx, token)
}

// HistoryToken formats a message history ID as a checkpoint token.
func HistoryToken(msg *gm.Message) string {
	if msg == nil || msg.HistoryId == 0 {
		return ""
	}
	return strconv.FormatUint(msg.HistoryId, 10)
}

// StatusCode returns the HTTP status of a Google API error, or 0.
func StatusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
