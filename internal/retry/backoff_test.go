package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDo_Success_FirstAttempt(t *testing.T) {
	cfg := Config{Attempts: 3, Delay: 10 * time.Millisecond}

	attempts := 0
	err := Do(context.Background(), cfg, "test operation", func() error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_Success_AfterRetries(t *testing.T) {
	cfg := Config{Attempts: 3, Delay: 10 * time.Millisecond}

	attempts := 0
	err := Do(context.Background(), cfg, "test operation", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient error")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustedAttempts(t *testing.T) {
	cfg := Config{Attempts: 3, Delay: 5 * time.Millisecond}

	attempts := 0
	err := Do(context.Background(), cfg, "test operation", func() error {
		attempts++
		return errors.New("persistent error")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "test operation failed after 3 attempts")
	assert.Contains(t, err.Error(), "persistent error")
}

func TestDo_ZeroAttempts_RunsOnce(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{}, "test operation", func() error {
		attempts++
		return errors.New("boom")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	cfg := Config{Attempts: 10, Delay: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, cfg, "test operation", func() error {
		attempts++
		return errors.New("transient error")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "retry cancelled")
	assert.Equal(t, 1, attempts)
}

func TestDo_UnwrapsLastError(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := Do(context.Background(), Config{Attempts: 2, Delay: time.Millisecond}, "op", func() error {
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
}
