package emulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVirtualClockAdvance(t *testing.T) {
	start := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := NewVirtualClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start.Add(TickQuantum), clock.Advance())
	assert.Equal(t, start.Add(2*TickQuantum), clock.Advance())
	assert.Equal(t, 5.0, clock.QuantumMinutes())
}

func TestVirtualClockNormalizesToUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	assert.NoError(t, err)

	start := time.Date(2024, 6, 15, 9, 0, 0, 0, loc)
	clock := NewVirtualClock(start)
	assert.Equal(t, time.UTC, clock.Now().Location())
	assert.True(t, clock.Now().Equal(start))
}

func TestSameDayAndMonth(t *testing.T) {
	a := time.Date(2024, 6, 15, 23, 55, 0, 0, time.UTC)
	b := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	c := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, sameDay(a, a))
	assert.False(t, sameDay(a, b))
	assert.True(t, sameMonth(a, b))
	assert.False(t, sameMonth(b, c))
}
