package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStartWithoutScheduleIsIdle(t *testing.T) {
	s := New(func(context.Context) error { return nil }, zap.NewNop())
	require.NoError(t, s.Start(""))
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(func(context.Context) error { return nil }, zap.NewNop())
	assert.Error(t, s.Start("every tuesday"))
	s.Stop()
}

func TestStartRegistersRetrain(t *testing.T) {
	s := New(func(context.Context) error { return nil }, zap.NewNop())
	require.NoError(t, s.Start("@hourly"))
	assert.True(t, s.IsRunning())
	s.Stop()
}

func TestRunInvokesRetrain(t *testing.T) {
	calls := 0
	s := New(func(ctx context.Context) error {
		calls++
		require.NoError(t, ctx.Err())
		return errors.New("store offline")
	}, zap.NewNop())

	s.run()
	s.run()
	assert.Equal(t, 2, calls)
	s.Stop()
}
