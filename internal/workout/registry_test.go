package workout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/2beens/gymsession/internal/telemetry/metrics"
	"github.com/2beens/gymsession/internal/workout"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestRegistry(t *testing.T) (*workout.Registry, *MocksessionBackend, *metrics.Manager) {
	ctrl := gomock.NewController(t)
	backend := NewMocksessionBackend(ctrl)
	metricsManager := metrics.NewTestManager()
	registry := workout.NewRegistry(workout.ControllerParams{
		Backend:        backend,
		MetricsManager: metricsManager,
		TickPeriod:     time.Hour,
		Now:            newFakeNow(sessionStartedAt).Now,
	})
	t.Cleanup(registry.CloseAll)
	return registry, backend, metricsManager
}

func TestRegistry_Start(t *testing.T) {
	registry, backend, metricsManager := newTestRegistry(t)
	ctx := context.Background()

	backend.EXPECT().StartSession(gomock.Any(), 3).Return(0, errors.New("nope"))
	c, err := registry.Start(ctx, 3)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.Equal(t, 0, registry.Len())

	// created, but the first exercise failed to load
	backend.EXPECT().StartSession(gomock.Any(), 3).Return(11, nil)
	backend.EXPECT().GetExerciseDetail(gomock.Any(), 11, 1).Return(nil, errors.New("timeout"))
	c, err = registry.Start(ctx, 3)
	require.Error(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 11, c.SessionID())

	held, ok := registry.Get(11)
	require.True(t, ok)
	assert.Same(t, c, held)
	assert.Equal(t, 1.0, testutil.ToFloat64(metricsManager.GaugeActiveSessions))

	// retry the load through Open
	backend.EXPECT().GetExerciseDetail(gomock.Any(), 11, 1).Return(exerciseDetail(11, 1, 1), nil)
	c, err = registry.Open(ctx, 11, 1)
	require.NoError(t, err)
	assert.Same(t, held, c)
	assert.Equal(t, workout.StateActive, c.State())
}

func TestRegistry_Open(t *testing.T) {
	registry, backend, metricsManager := newTestRegistry(t)
	ctx := context.Background()

	_, err := registry.Open(ctx, 0, 1)
	assert.ErrorIs(t, err, workout.ErrInvalidSession)
	assert.Equal(t, 0, registry.Len())

	backend.EXPECT().GetExerciseDetail(gomock.Any(), 5, 2).Return(exerciseDetail(5, 2, 0), nil)
	backend.EXPECT().GetExerciseDetail(gomock.Any(), 6, 1).Return(exerciseDetail(6, 1, 0), nil)
	_, err = registry.Open(ctx, 5, 2)
	require.NoError(t, err)
	_, err = registry.Open(ctx, 6, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, registry.SessionIDs())
	assert.Equal(t, 2.0, testutil.ToFloat64(metricsManager.GaugeActiveSessions))

	backend.EXPECT().GetExerciseDetail(gomock.Any(), 8, 1).Return(nil, workout.ErrSessionNotFound)
	c, err := registry.Open(ctx, 8, 1)
	assert.ErrorIs(t, err, workout.ErrSessionNotFound)
	assert.Nil(t, c)
	_, ok := registry.Get(8)
	assert.False(t, ok)

	registry.Remove(5)
	assert.Equal(t, []int{6}, registry.SessionIDs())
	// unknown ids are ignored
	registry.Remove(404)

	registry.CloseAll()
	assert.Equal(t, 0, registry.Len())
	assert.Equal(t, 0.0, testutil.ToFloat64(metricsManager.GaugeActiveSessions))
}

func TestRegistry_Summary(t *testing.T) {
	registry, backend, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := registry.Summary(ctx, -1)
	assert.ErrorIs(t, err, workout.ErrInvalidSession)

	backend.EXPECT().GetSessionSummary(gomock.Any(), 12).Return(&workout.SessionSummary{SessionID: 12, XPEarned: 80}, nil)
	summary, err := registry.Summary(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, 80, summary.XPEarned)

	backend.EXPECT().GetSessionSummary(gomock.Any(), 13).Return(nil, errors.New("502"))
	_, err = registry.Summary(ctx, 13)
	var opErr *workout.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, workout.OpSummary, opErr.Op)
	assert.True(t, opErr.Retryable)

	// held and still in progress
	backend.EXPECT().GetExerciseDetail(gomock.Any(), 14, 1).Return(exerciseDetail(14, 1, 1), nil)
	_, err = registry.Open(ctx, 14, 1)
	require.NoError(t, err)
	_, err = registry.Summary(ctx, 14)
	assert.ErrorIs(t, err, workout.ErrSummaryUnavailable)
}
