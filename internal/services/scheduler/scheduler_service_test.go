package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func waitForRun(t *testing.T, s *Service, name string) *JobStatus {
	t.Helper()
	var status *JobStatus
	require.Eventually(t, func() bool {
		var err error
		status, err = s.GetJobStatus(name)
		return err == nil && status.LastRun != nil && !status.IsRunning
	}, 2*time.Second, 10*time.Millisecond)
	return status
}

func TestRegisterJob(t *testing.T) {
	s := NewService(arbor.NewLogger(), 0)
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.RegisterJob("history_prune", "0 3 * * *", "Remove expired history", noop))
	assert.Error(t, s.RegisterJob("history_prune", "0 3 * * *", "duplicate", noop))
	assert.Error(t, s.RegisterJob("bad", "every tuesday", "invalid", noop))
	require.NoError(t, s.RegisterJob("manual", "", "Trigger only", noop))

	statuses := s.GetAllJobStatuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "history_prune", statuses[0].Name)
	assert.Equal(t, "manual", statuses[1].Name)
	assert.Nil(t, statuses[0].NextRun)
}

func TestTriggerJob_RecordsOutcome(t *testing.T) {
	s := NewService(arbor.NewLogger(), time.Second)
	var calls atomic.Int32
	fail := atomic.Bool{}

	require.NoError(t, s.RegisterJob("session_sweep", "", "Drop idle sessions", func(ctx context.Context) error {
		calls.Add(1)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		if fail.Load() {
			return errors.New("sweep failed")
		}
		return nil
	}))

	require.NoError(t, s.TriggerJob("session_sweep"))
	status := waitForRun(t, s, "session_sweep")
	assert.Empty(t, status.LastError)

	fail.Store(true)
	require.NoError(t, s.TriggerJob("session_sweep"))
	require.Eventually(t, func() bool {
		status, _ = s.GetJobStatus("session_sweep")
		return status.LastError != ""
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "sweep failed", status.LastError)
	assert.Equal(t, int32(2), calls.Load())

	assert.Error(t, s.TriggerJob("missing"))
}

func TestExecuteJob_RecoversPanic(t *testing.T) {
	s := NewService(arbor.NewLogger(), 0)
	require.NoError(t, s.RegisterJob("boom", "", "panics", func(ctx context.Context) error {
		panic("kaboom")
	}))

	s.executeJob("boom")

	status, err := s.GetJobStatus("boom")
	require.NoError(t, err)
	assert.False(t, status.IsRunning)
	assert.Equal(t, "panic: kaboom", status.LastError)
}

func TestStartStop(t *testing.T) {
	s := NewService(arbor.NewLogger(), 0)
	require.NoError(t, s.RegisterJob("tick", "@every 1h", "hourly", func(ctx context.Context) error { return nil }))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())

	status, err := s.GetJobStatus("tick")
	require.NoError(t, err)
	require.NotNil(t, status.NextRun)
	assert.True(t, status.NextRun.After(time.Now()))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop())
}
