package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterAdmitsUpToRate(t *testing.T) {
	l := New(2)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, l.Wait(ctx))
	assert.NoError(t, l.Wait(ctx))
	assert.Equal(t, 2, l.InUse())
}

func TestLimiterBlocksPastRate(t *testing.T) {
	l := New(1)
	require := assert.New(t)

	require.NoError(l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	require.ErrorIs(err, context.DeadlineExceeded)
}

func TestLimiterDisabledWhenZero(t *testing.T) {
	l := New(0)
	for i := 0; i < 100; i++ {
		assert.NoError(t, l.Wait(context.Background()))
	}
}
