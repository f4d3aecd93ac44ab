package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockFrozenUntilAdvanced(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now())

	c.Advance(250 * time.Millisecond)
	assert.Equal(t, start.Add(250*time.Millisecond), c.Now())
}

func TestFakeClockSet(t *testing.T) {
	c := NewFakeClock(time.Unix(0, 0))
	c.Advance(time.Hour)

	reset := time.Unix(42, 0)
	c.Set(reset)
	assert.Equal(t, reset, c.Now())
}

func TestFakeClockConcurrentAdvance(t *testing.T) {
	start := time.Unix(0, 0)
	c := NewFakeClock(start)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Advance(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, start.Add(time.Second), c.Now())
}

func TestSequentialIDGenerator(t *testing.T) {
	g := NewSequentialIDGenerator("")
	assert.Equal(t, "run-000001", g.Generate())
	assert.Equal(t, "run-000002", g.Generate())

	custom := NewSequentialIDGenerator("solve")
	first := custom.Generate()
	second := custom.Generate()
	assert.Equal(t, "solve-000001", first)
	assert.Less(t, first, second, "IDs must sort in generation order")
}
