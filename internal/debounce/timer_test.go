package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerFiresOnceAfterDelay(t *testing.T) {
	var calls int32
	timer := New(20*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })

	timer.Reset()
	time.Sleep(60 * time.Millisecond)

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestTimerResetPushesFireOut(t *testing.T) {
	var calls int32
	timer := New(30*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })

	timer.Reset()
	time.Sleep(15 * time.Millisecond)
	timer.Reset() // pushes fire out another 30ms
	time.Sleep(20 * time.Millisecond)

	assert.EqualValues(t, 0, atomic.LoadInt32(&calls), "reset should have postponed the fire")

	time.Sleep(30 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestTimerStopCancelsPendingFire(t *testing.T) {
	var calls int32
	timer := New(15*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })

	timer.Reset()
	timer.Stop()
	time.Sleep(40 * time.Millisecond)

	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}
