package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMarketOpen(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	at := func(day, hour, min int) time.Time {
		return time.Date(2026, 8, day, hour, min, 0, 0, loc)
	}

	// 2026-08-31 is a Monday.
	assert.True(t, IsMarketOpen(at(31, 9, 30), loc), "open at the bell")
	assert.True(t, IsMarketOpen(at(31, 12, 0), loc))
	assert.True(t, IsMarketOpen(at(31, 16, 0), loc), "close is inclusive")
	assert.False(t, IsMarketOpen(at(31, 9, 29), loc))
	assert.False(t, IsMarketOpen(at(31, 16, 1), loc))
	assert.False(t, IsMarketOpen(at(29, 12, 0), loc), "Saturday")
	assert.False(t, IsMarketOpen(at(30, 12, 0), loc), "Sunday")
}

func TestIsMarketOpenConvertsZones(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 18:00 UTC on a summer Monday is 14:00 in New York.
	utcNoon := time.Date(2026, 8, 31, 18, 0, 0, 0, time.UTC)
	assert.True(t, IsMarketOpen(utcNoon, ny))

	// 02:00 UTC Tuesday is Monday 22:00 in New York: closed.
	lateUTC := time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC)
	assert.False(t, IsMarketOpen(lateUTC, ny))
}

func TestNextMarketOpen(t *testing.T) {
	loc := time.UTC
	at := func(day, hour, min int) time.Time {
		return time.Date(2026, 8, day, hour, min, 0, 0, loc)
	}

	t.Run("during session returns now", func(t *testing.T) {
		now := at(31, 11, 0)
		assert.Equal(t, now, NextMarketOpen(now, loc))
	})

	t.Run("before the bell returns same-day open", func(t *testing.T) {
		assert.Equal(t, at(31, 9, 30), NextMarketOpen(at(31, 7, 0), loc))
	})

	t.Run("after close rolls to next day", func(t *testing.T) {
		// Monday evening -> Tuesday open.
		assert.Equal(t, time.Date(2026, 9, 1, 9, 30, 0, 0, loc), NextMarketOpen(at(31, 17, 0), loc))
	})

	t.Run("weekend rolls to Monday", func(t *testing.T) {
		assert.Equal(t, at(31, 9, 30), NextMarketOpen(at(29, 12, 0), loc), "Saturday")
		assert.Equal(t, at(31, 9, 30), NextMarketOpen(at(30, 8, 0), loc), "Sunday")
	})

	t.Run("Friday evening rolls past the weekend", func(t *testing.T) {
		assert.Equal(t, at(31, 9, 30), NextMarketOpen(at(28, 18, 0), loc))
	})
}
