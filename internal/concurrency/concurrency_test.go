package concurrency

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewPool(t *testing.T) {
	t.Run("runs_every_task", func(t *testing.T) {
		var ran atomic.Int32
		p := NewPool(context.Background(), 3)
		for i := 0; i < 10; i++ {
			p.Go(func(ctx context.Context) error {
				ran.Add(1)
				return nil
			})
		}
		require.NoError(t, p.Wait())
		require.Equal(t, int32(10), ran.Load())
	})

	t.Run("returns_first_error_and_cancels_the_rest", func(t *testing.T) {
		errBoom := errors.New("boom")
		p := NewPool(context.Background(), 1)
		p.Go(func(ctx context.Context) error {
			return errBoom
		})
		p.Go(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		require.ErrorIs(t, p.Wait(), errBoom)
	})

	t.Run("non_positive_limit_still_runs", func(t *testing.T) {
		var ran atomic.Bool
		p := NewPool(context.Background(), 0)
		p.Go(func(ctx context.Context) error {
			ran.Store(true)
			return nil
		})
		require.NoError(t, p.Wait())
		require.True(t, ran.Load())
	})
}
