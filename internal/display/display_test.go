package display

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/daviddao/mailsheets/internal/types"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "Ünï...", Truncate("Ünïcode text", 6))
}

func TestTimeAgo(t *testing.T) {
	assert.Equal(t, "", TimeAgo(""))
	assert.Equal(t, "just now", TimeAgo(time.Now().UTC().Format(time.RFC3339)))
	assert.Equal(t, "2h ago", TimeAgo(time.Now().Add(-2*time.Hour-time.Minute).UTC().Format(time.RFC3339)))
	assert.Equal(t, "not a date", TimeAgo("not a date"))
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	Progress(&buf, 2, 5, types.Email{From: "a@example.com"})

	out := buf.String()
	assert.Contains(t, out, "[2/5]")
	assert.Contains(t, out, "a@example.com")
	assert.Contains(t, out, "(no subject)")
}

func TestEmailBodyLimit(t *testing.T) {
	var buf bytes.Buffer
	Email(&buf, "m1", types.Email{From: "a@example.com", Content: "one\ntwo\nthree"}, 2)

	out := buf.String()
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "two")
	assert.NotContains(t, out, "three")
	assert.Contains(t, out, "(1 more lines)")
}
