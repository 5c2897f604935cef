package gameserver_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/buttonmen/internal/gameserver"
)

func TestActionClock_TruncatesToMicroseconds(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.FixedZone("X", 3600))
	c := gameserver.NewActionClock(func() time.Time { return base })
	got := c.Now()
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 123456000, got.Nanosecond())
}

func TestActionClock_StrictlyIncreasesForFrozenTime(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := gameserver.NewActionClock(func() time.Time { return base })
	first, second := c.Now(), c.Now()
	assert.Equal(t, time.Microsecond, second.Sub(first))
}

func TestActionClock_Concurrent(t *testing.T) {
	c := gameserver.NewActionClock(nil)
	var mu sync.Mutex
	seen := map[time.Time]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ts := c.Now()
				mu.Lock()
				seen[ts] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}

func TestProperty_ActionClockMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		offsets := rapid.SliceOfN(rapid.Int64Range(-5000, 5000), 1, 50).Draw(t, "offsets")
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		i := 0
		c := gameserver.NewActionClock(func() time.Time {
			return base.Add(time.Duration(offsets[i%len(offsets)]) * time.Nanosecond * 997)
		})
		var last time.Time
		for i = 0; i < len(offsets); i++ {
			ts := c.Now()
			if !ts.After(last) {
				t.Fatalf("clock went backwards: %v then %v", last, ts)
			}
			last = ts
		}
	})
}
