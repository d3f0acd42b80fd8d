package uuidgen

import (
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monotonicPrefix(id [16]byte) uint64 {
	timeLow := uint64(binary.BigEndian.Uint32(id[0:4]))
	timeMid := uint64(binary.BigEndian.Uint16(id[4:6]))
	timeHi := uint64(binary.BigEndian.Uint16(id[6:8]) &^ 0xF000)
	return timeLow | (timeMid << 32) | (timeHi << 48)
}

func TestGenerateUniqueUnderContention(t *testing.T) {
	g := Init(42)
	const goroutines = 8
	const perGoroutine = 200

	var mu sync.Mutex
	seen := make(map[[16]byte]bool)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last uint64
			for j := 0; j < perGoroutine; j++ {
				id, err := g.Generate()
				require.NoError(t, err)
				mu.Lock()
				assert.False(t, seen[id], "duplicate id generated")
				seen[id] = true
				mu.Unlock()
				ts := monotonicPrefix(id)
				assert.GreaterOrEqual(t, ts, last, "monotonic substring must never decrease within one thread")
				last = ts
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, goroutines*perGoroutine, len(seen))
}

func TestGenerateAfterShutdownFails(t *testing.T) {
	g := Init(1)
	_, err := g.Generate()
	require.NoError(t, err)
	g.Shutdown()
	_, err = g.Generate()
	require.Error(t, err)
}

func TestProcessIDEncoded(t *testing.T) {
	g := Init(1)
	id, err := g.Generate()
	require.NoError(t, err)
	pid := uint16(id[8])<<8 | uint16(id[9])
	assert.Equal(t, g.pid, pid)
}
