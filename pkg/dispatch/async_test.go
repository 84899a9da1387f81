package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/dispatch"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/ports"
)

type collector struct {
	mu   sync.Mutex
	runs []string
}

func (c *collector) Deliver(_ context.Context, sub domain.Submission) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, sub.RunID)
	return nil
}

func TestAsync_DeliversEverythingBeforeClose(t *testing.T) {
	c := &collector{}
	a := dispatch.NewAsync(c, dispatch.WithWorkers(3))

	for _, id := range []string{"a", "b", "c", "d"} {
		a.Dispatch(context.Background(), domain.Submission{RunID: id})
	}
	require.NoError(t, a.Close(context.Background()))

	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, c.runs)
	assert.ErrorIs(t, a.Close(context.Background()), dispatch.ErrClosed)
}

func TestAsync_NeverBlocksWhenFull(t *testing.T) {
	release := make(chan struct{})
	blocked := ports.DelivererFunc(func(ctx context.Context, _ domain.Submission) error {
		<-release
		return nil
	})
	var dropped []string
	a := dispatch.NewAsync(blocked,
		dispatch.WithWorkers(1),
		dispatch.WithQueueSize(1),
		dispatch.WithDropHandler(func(s domain.Submission) { dropped = append(dropped, s.RunID) }),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			a.Dispatch(context.Background(), domain.Submission{RunID: "r"})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch blocked")
	}

	// One in flight and one queued at most.
	assert.GreaterOrEqual(t, a.Dropped(), int64(8))
	assert.Len(t, dropped, int(a.Dropped()))

	close(release)
	require.NoError(t, a.Close(context.Background()))
}

func TestAsync_CountsFailures(t *testing.T) {
	var seen error
	a := dispatch.NewAsync(
		ports.DelivererFunc(func(context.Context, domain.Submission) error { return errors.New("down") }),
		dispatch.WithErrorHandler(func(_ domain.Submission, err error) { seen = err }),
		dispatch.WithWorkers(1),
	)
	a.Dispatch(context.Background(), domain.Submission{RunID: "r"})
	require.NoError(t, a.Close(context.Background()))

	assert.Equal(t, int64(1), a.Failed())
	assert.EqualError(t, seen, "down")
}

func TestMulti_JoinsErrors(t *testing.T) {
	c := &collector{}
	boom := ports.DelivererFunc(func(context.Context, domain.Submission) error { return errors.New("boom") })

	err := dispatch.Multi{boom, c}.Deliver(context.Background(), domain.Submission{RunID: "r"})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"r"}, c.runs, "a failing target does not stop the others")
}
