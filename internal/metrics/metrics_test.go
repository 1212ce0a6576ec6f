package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()

	m.Observe(3, 3, 2*time.Second, nil)
	m.Observe(2, 1, time.Second, errors.New("append failed"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("failure")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Processed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Unread))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccess), 0.0)
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Observe(1, 1, time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "mailsheets.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mailsheets_messages_processed_total 1")
	assert.Contains(t, string(data), `mailsheets_runs_total{result="success"} 1`)
}

func TestRegistryGather(t *testing.T) {
	m := New()
	m.Observe(2, 2, time.Second, nil)
	m.Observe(0, 0, time.Second, errors.New("list failed"))

	expected := `
# HELP mailsheets_messages_processed_total Messages appended to the sheet and marked read
# TYPE mailsheets_messages_processed_total counter
mailsheets_messages_processed_total 2
# HELP mailsheets_runs_total Sync passes, by result
# TYPE mailsheets_runs_total counter
mailsheets_runs_total{result="failure"} 1
mailsheets_runs_total{result="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"mailsheets_messages_processed_total", "mailsheets_runs_total"))
}
