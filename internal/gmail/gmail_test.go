package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gm "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	svc, err := gm.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return New(svc, opts...)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestListUnreadFollowsPages(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/gmail/v1/users/me/messages", r.URL.Path)
		assert.ElementsMatch(t, []string{"INBOX", "UNREAD"}, r.URL.Query()["labelIds"])
		assert.Equal(t, "messages/id,nextPageToken", r.URL.Query().Get("fields"))

		switch r.URL.Query().Get("pageToken") {
		case "":
			writeJSON(t, w, gm.ListMessagesResponse{
				Messages:      []*gm.Message{{Id: "a"}, {Id: "b"}},
				NextPageToken: "p2",
			})
		case "p2":
			writeJSON(t, w, gm.ListMessagesResponse{Messages: []*gm.Message{{Id: "c"}}})
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("pageToken"))
		}
	})

	ids, err := c.ListUnread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, 2, calls)
}

func TestListUnreadEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{})
	})

	ids, err := c.ListUnread(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestListUnreadLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("maxResults"))
		writeJSON(t, w, gm.ListMessagesResponse{
			Messages:      []*gm.Message{{Id: "a"}, {Id: "b"}},
			NextPageToken: "more",
		})
	}, WithLimit(2))

	ids, err := c.ListUnread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestListUnreadCustomUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/jane@example.com/messages", r.URL.Path)
		writeJSON(t, w, map[string]any{})
	}, WithUser("jane@example.com"))

	_, err := c.ListUnread(context.Background())
	require.NoError(t, err)
}

func TestListUnreadError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	})

	_, err := c.ListUnread(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list unread messages")
	assert.Equal(t, http.StatusForbidden, StatusCode(err))
}

func TestFetchFull(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/messages/m1", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		writeJSON(t, w, gm.Message{
			Id:        "m1",
			HistoryId: 4242,
			Payload: &gm.MessagePart{
				Headers: []*gm.MessagePartHeader{{Name: "Subject", Value: "hi"}},
			},
		})
	})

	msg, err := c.FetchFull(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.Id)
	assert.Equal(t, "hi", msg.Payload.Headers[0].Value)
	assert.Equal(t, "4242", HistoryToken(msg))
}

func TestFetchFullNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	})

	_, err := c.FetchFull(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get message missing")
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestMarkRead(t *testing.T) {
	var got gm.ModifyMessageRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/gmail/v1/users/me/messages/m1/modify", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, gm.Message{Id: "m1", LabelIds: []string{"INBOX"}})
	})

	require.NoError(t, c.MarkRead(context.Background(), "m1"))
	assert.Equal(t, []string{"UNREAD"}, got.RemoveLabelIds)
	assert.Empty(t, got.AddLabelIds)
}

type memStore struct {
	token string
	ok    bool
	err   error
}

func (m *memStore) Checkpoint(context.Context) (string, bool, error) { return m.token, m.ok, m.err }
func (m *memStore) SetCheckpoint(_ context.Context, token string) error {
	if m.err != nil {
		return m.err
	}
	m.token, m.ok = token, true
	return nil
}

func TestCheckpointWithoutStore(t *testing.T) {
	c := New(nil)
	ctx := context.Background()

	require.NoError(t, c.SaveCheckpoint(ctx, "9"))
	token, ok, err := c.LoadCheckpoint(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", token)
}

func TestCheckpointDelegatesToStore(t *testing.T) {
	store := &memStore{}
	c := New(nil, WithCheckpointStore(store))
	ctx := context.Background()

	require.NoError(t, c.SaveCheckpoint(ctx, "77"))
	token, ok, err := c.LoadCheckpoint(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "77", token)

	store.err = errors.New("disk full")
	assert.Error(t, c.SaveCheckpoint(ctx, "78"))
}

func TestHistoryToken(t *testing.T) {
	assert.Equal(t, "", HistoryToken(nil))
	assert.Equal(t, "", HistoryToken(&gm.Message{}))
	assert.Equal(t, "18446744073709551615", HistoryToken(&gm.Message{HistoryId: ^uint64(0)}))
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
}

func TestNewFromHTTPClient(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "/gmail/v1/users/someone@example.com/messages", r.URL.Path)
		writeJSON(t, w, gm.ListMessagesResponse{Messages: []*gm.Message{{Id: "x"}}})
	}))
	t.Cleanup(srv.Close)

	hc := srv.Client()
	base := hc.Transport
	hc.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		r = r.Clone(r.Context())
		r.Header.Set("Authorization", "Bearer session")
		return base.RoundTrip(r)
	})

	c, err := NewFromHTTPClient(context.Background(), hc,
		[]option.ClientOption{option.WithEndpoint(srv.URL + "/")},
		WithUser("someone@example.com"),
	)
	require.NoError(t, err)

	ids, err := c.ListUnread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids)
	assert.Equal(t, "Bearer session", auth)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
