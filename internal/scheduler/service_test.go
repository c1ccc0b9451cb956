package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/azure/discussion-insights/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	runs int32
	err  error
}

func (c *countingRunner) RunScheduled() error {
	atomic.AddInt32(&c.runs, 1)
	return c.err
}

func TestService_RunsOnSchedule(t *testing.T) {
	runner := &countingRunner{err: errors.New("no data")}
	service := NewService(&config.Config{Schedule: "* * * * * *", TimeZone: "UTC"}, runner)

	require.NoError(t, service.Start())
	defer service.Stop()

	assert.False(t, service.Next().IsZero())
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runner.runs) > 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestService_InvalidSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
	}{
		{name: "garbage", schedule: "every morning"},
		{name: "too few fields", schedule: "0 9 *"},
		{name: "out of range", schedule: "0 0 25 * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(&config.Config{Schedule: tt.schedule}, &countingRunner{})
			err := service.Start()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid schedule")
		})
	}
}

func TestService_NextBeforeStart(t *testing.T) {
	service := NewService(&config.Config{Schedule: "@hourly"}, &countingRunner{})
	assert.True(t, service.Next().IsZero())
}
