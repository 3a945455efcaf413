package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchHonoursInterval(t *testing.T) {
	s := New()
	var runs atomic.Int32
	s.Every(time.Hour).Name("purge").Run(func(context.Context) error {
		runs.Add(1)
		return nil
	})

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	s.dispatchDue(ctx, base)
	s.Wait()
	s.dispatchDue(ctx, base.Add(30*time.Minute))
	s.Wait()
	assert.EqualValues(t, 1, runs.Load())

	s.dispatchDue(ctx, base.Add(time.Hour))
	s.Wait()
	assert.EqualValues(t, 2, runs.Load())
}

func TestDispatchSkipsOverlap(t *testing.T) {
	s := New()
	release := make(chan struct{})
	var runs atomic.Int32
	s.Every(time.Nanosecond).Run(func(context.Context) error {
		runs.Add(1)
		<-release
		return nil
	})

	now := time.Now()
	s.dispatchDue(context.Background(), now)
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)

	s.dispatchDue(context.Background(), now.Add(time.Minute))
	close(release)
	s.Wait()
	assert.EqualValues(t, 1, runs.Load())
}

func TestFailingAndPanickingTasksDoNotStopTheLoop(t *testing.T) {
	s := New()
	s.tick = time.Millisecond
	var good atomic.Int32
	s.Every(time.Millisecond).Name("broken").Run(func(context.Context) error { return errors.New("boom") })
	s.Every(time.Millisecond).Name("panics").Run(func(context.Context) error { panic("nope") })
	s.Every(time.Millisecond).Name("good").Run(func(context.Context) error {
		good.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool { return good.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	s.Wait()
}

func TestList(t *testing.T) {
	s := New()
	s.Every(time.Hour).Name("auth:purge-tokens").Run(func(context.Context) error { return nil })
	s.Every(time.Minute).Run(func(context.Context) error { return nil })

	assert.Equal(t, []string{"auth:purge-tokens  [1h0m0s]", "task-2  [1m0s]"}, s.List())
}
