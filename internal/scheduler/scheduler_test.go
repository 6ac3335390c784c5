package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Guliveer/vitalis/dashboard/internal/models"
)

type countingSource struct {
	calls  atomic.Int32
	failOn int32
}

func (c *countingSource) Sample(context.Context) (*models.Snapshot, error) {
	n := c.calls.Add(1)
	if n == c.failOn {
		return nil, errors.New("platform api failure")
	}
	return &models.Snapshot{RAM: float64(n)}, nil
}

func TestScheduler_SamplesImmediatelyAndOnTick(t *testing.T) {
	src := &countingSource{failOn: 2}
	s := New(src, 10*time.Millisecond, nil)

	got := make(chan float64, 16)
	s.OnSnapshot(func(snap *models.Snapshot) {
		select {
		case got <- snap.RAM:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	first := <-got
	assert.Equal(t, 1.0, first)

	// The failed second sample is skipped; the loop keeps going.
	select {
	case next := <-got:
		assert.Equal(t, 3.0, next)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler stopped after a failed sample")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestScheduler_MultipleSubscribers(t *testing.T) {
	s := New(&countingSource{}, time.Hour, nil)
	var a, b atomic.Int32
	s.OnSnapshot(func(*models.Snapshot) { a.Add(1) })
	s.OnSnapshot(func(*models.Snapshot) { b.Add(1) })

	s.tick(context.Background())
	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(1), b.Load())
}
