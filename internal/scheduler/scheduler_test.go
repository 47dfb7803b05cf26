package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStart_RunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ok, failing, disabled atomic.Int32
	tasks := []Task{
		{Name: "ok", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
			ok.Add(1)
			return nil
		}},
		{Name: "failing", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
			failing.Add(1)
			return errors.New("upstream down")
		}},
		{Name: "disabled", Run: func(context.Context) error {
			disabled.Add(1)
			return nil
		}},
	}

	done := make(chan struct{})
	go func() {
		Start(ctx, tasks, nil)
		close(done)
	}()

	assert.Eventually(t, func() bool { return ok.Load() >= 2 && failing.Load() >= 2 },
		time.Second, 5*time.Millisecond, "a failing task keeps its schedule")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
	assert.Zero(t, disabled.Load())
}

func TestStart_NoTasksReturnsImmediately(t *testing.T) {
	done := make(chan struct{})
	go func() {
		Start(context.Background(), []Task{{Name: "off"}}, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start blocked with nothing scheduled")
	}
}
