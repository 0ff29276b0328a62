package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker(t *testing.T) {
	t.Run("closed until threshold", func(t *testing.T) {
		b := NewBreaker("test", 3, time.Minute)

		b.RecordFailure()
		b.RecordFailure()
		assert.True(t, b.Allow())

		b.RecordFailure()
		assert.False(t, b.Allow())
	})

	t.Run("success resets the failure count", func(t *testing.T) {
		b := NewBreaker("test", 3, time.Minute)

		b.RecordFailure()
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordFailure()
		assert.True(t, b.Allow())
	})

	t.Run("half open probe closes on success", func(t *testing.T) {
		b := NewBreaker("test", 1, time.Minute)

		b.RecordFailure()
		assert.False(t, b.Allow())

		b.lastFailure = time.Now().Add(-2 * time.Minute)
		assert.True(t, b.Allow(), "one probe passes after the timeout")

		b.RecordSuccess()
		assert.True(t, b.Allow())
		assert.Equal(t, StateClosed, b.state)
	})

	t.Run("half open probe reopens on failure", func(t *testing.T) {
		b := NewBreaker("test", 1, time.Minute)

		b.RecordFailure()
		b.lastFailure = time.Now().Add(-2 * time.Minute)
		assert.True(t, b.Allow())

		b.RecordFailure()
		assert.False(t, b.Allow())
		assert.Equal(t, StateOpen, b.state)
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "CLOSED", StateClosed.String())
	assert.Equal(t, "OPEN", StateOpen.String())
	assert.Equal(t, "HALF-OPEN", StateHalfOpen.String())
}
