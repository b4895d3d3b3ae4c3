package workout_test

import (
	"sync"
	"testing"
	"time"

	"github.com/2beens/gymsession/internal/workout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeNow(t time.Time) *fakeNow {
	return &fakeNow{t: t}
}

func (f *fakeNow) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = t
}

func (f *fakeNow) Add(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func TestClock_TickBeforeStart(t *testing.T) {
	c := workout.NewClock(time.Hour, nil)
	assert.Equal(t, int64(0), c.Tick())
	assert.False(t, c.Running())
	c.Stop()
}

func TestClock_Elapsed(t *testing.T) {
	origin := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	now := newFakeNow(origin.Add(90*time.Second + 700*time.Millisecond))

	c := workout.NewClock(time.Hour, now.Now)
	c.Start(origin)
	defer c.Stop()

	assert.True(t, c.Running())
	assert.Equal(t, int64(90), c.Elapsed())

	now.Add(2 * time.Hour)
	assert.Equal(t, int64(7290), c.Tick())
	assert.Equal(t, origin, c.Origin())
}

func TestClock_FutureOriginClampsToZero(t *testing.T) {
	origin := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	now := newFakeNow(origin.Add(-30 * time.Second))

	c := workout.NewClock(time.Hour, now.Now)
	c.Start(origin)
	defer c.Stop()

	assert.Equal(t, int64(0), c.Tick())
}

func TestClock_NonDecreasing(t *testing.T) {
	origin := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	now := newFakeNow(origin.Add(100 * time.Second))

	c := workout.NewClock(time.Hour, now.Now)
	c.Start(origin)
	defer c.Stop()

	require.Equal(t, int64(100), c.Tick())

	// wall clock regresses
	now.Set(origin.Add(40 * time.Second))
	assert.Equal(t, int64(100), c.Tick())

	now.Set(origin.Add(101 * time.Second))
	assert.Equal(t, int64(101), c.Tick())
}

func TestClock_ReanchorResets(t *testing.T) {
	origin := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	now := newFakeNow(origin.Add(500 * time.Second))

	c := workout.NewClock(time.Hour, now.Now)
	c.Start(origin)
	require.Equal(t, int64(500), c.Elapsed())

	c.Start(origin.Add(450 * time.Second))
	defer c.Stop()
	assert.Equal(t, int64(50), c.Elapsed())
}

func TestClock_PeriodicTick(t *testing.T) {
	origin := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	now := newFakeNow(origin)

	c := workout.NewClock(5*time.Millisecond, now.Now)
	c.Start(origin)
	defer c.Stop()

	now.Add(42 * time.Second)
	assert.Eventually(t, func() bool {
		return c.Elapsed() == 42
	}, time.Second, 5*time.Millisecond)
}

func TestClock_StopHaltsTicks(t *testing.T) {
	origin := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	now := newFakeNow(origin.Add(10 * time.Second))

	c := workout.NewClock(time.Millisecond, now.Now)
	c.Start(origin)
	c.Stop()
	assert.False(t, c.Running())

	now.Add(time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(10), c.Elapsed())

	// stopping twice is fine
	c.Stop()
}

func TestClock_RepeatedStartKeepsOneTask(t *testing.T) {
	origin := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	c := workout.NewClock(time.Millisecond, newFakeNow(origin).Now)
	for i := 0; i < 20; i++ {
		c.Start(origin)
	}
	c.Stop()
	// goleak in TestMain reports any leftover ticker goroutine
}

func TestFormatElapsed(t *testing.T) {
	cases := map[int64]string{
		-5:     "00:00:00",
		0:      "00:00:00",
		9:      "00:00:09",
		61:     "00:01:01",
		3599:   "00:59:59",
		3600:   "01:00:00",
		45296:  "12:34:56",
		360000: "100:00:00",
	}
	for secs, expected := range cases {
		assert.Equal(t, expected, workout.FormatElapsed(secs), "seconds: %d", secs)
	}
}
