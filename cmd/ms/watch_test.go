package main

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	for _, spec := range []string{"", "every five minutes", "@every nope", "61 * * * *"} {
		c, err := newScheduler(spec, cron.FuncJob(func() {}))
		require.Error(t, err, spec)
		assert.Nil(t, c)
		assert.Contains(t, err.Error(), "invalid schedule")
	}
}

func TestNewSchedulerAcceptsSchedules(t *testing.T) {
	for _, spec := range []string{"@every 5m", "@hourly", "0 8-18 * * 1-5"} {
		c, err := newScheduler(spec, cron.FuncJob(func() {}))
		require.NoError(t, err, spec)
		require.Len(t, c.Entries(), 1)
		now := time.Now()
		assert.True(t, c.Entries()[0].Schedule.Next(now).After(now), spec)
	}
}
