package tx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kycgate/pkg/domain-errors"
)

func TestFrom(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)

	ctx := context.Background()
	assert.Equal(t, ctx, WithTx(ctx, nil), "nil transaction leaves context untouched")
}

func TestLockRunner(t *testing.T) {
	t.Run("returns the unit of work error", func(t *testing.T) {
		boom := errors.New("boom")
		err := NewLockRunner().RunInTx(context.Background(), func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("refuses cancelled contexts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		err := NewLockRunner().RunInTx(ctx, func(context.Context) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.False(t, called)
	})

	t.Run("serializes units of work", func(t *testing.T) {
		runner := NewLockRunner()
		var (
			wg      sync.WaitGroup
			active  int
			maxSeen int
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = runner.RunInTx(context.Background(), func(context.Context) error {
					active++
					if active > maxSeen {
						maxSeen = active
					}
					active--
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxSeen)
	})
}
