package sync

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestSpinlock(t *testing.T) {
	defer func(orig func()) { yieldFn = orig }(yieldFn)
	yieldFn = runtime.Gosched

	var (
		sl         Spinlock
		wg         sync.WaitGroup
		numWorkers = 10
	)

	sl.Acquire()

	if sl.TryToAcquire() != false {
		t.Error("expected TryToAcquire to return false when lock is held")
	}

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			sl.Acquire()
			sl.Release()
			wg.Done()
		}()
	}

	<-time.After(100 * time.Millisecond)
	sl.Release()
	wg.Wait()
}

func TestCritical(t *testing.T) {
	var disabled, enabled bool
	BindInterruptControl(
		func() { disabled = true },
		func() { enabled = true },
	)
	defer BindInterruptControl(func() {}, func() {})

	ran := false
	Critical(func() { ran = true })

	if !disabled || !enabled || !ran {
		t.Fatalf("expected disable/body/enable to all run, got disabled=%v ran=%v enabled=%v", disabled, ran, enabled)
	}
}
