package parallel

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(n), counter)
}

func TestFor_VisitsEachIndexOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	seen := make([]int32, 37)
	For(len(seen), func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	for i, v := range seen {
		assert.Equal(t, int32(1), v, "index %d", i)
	}
}

func TestForChunks_Ranges(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 2}

	var mu sync.Mutex
	covered := 0
	ForChunks(10, func(start, end int) {
		assert.Less(t, start, end)
		assert.GreaterOrEqual(t, end-start, 2)
		mu.Lock()
		covered += end - start
		mu.Unlock()
	}, cfg)

	assert.Equal(t, 10, covered)
}

func TestForChunks_SequentialFallback(t *testing.T) {
	tests := []struct {
		name string
		n    int
		cfg  Config
	}{
		{"disabled", 100, Config{Enabled: false, NumWorkers: 8, MinChunkSize: 1}},
		{"one worker", 100, Sequential()},
		{"below two chunks", 100, Config{Enabled: true, NumWorkers: 8, MinChunkSize: 64}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			ForChunks(tt.n, func(start, end int) {
				calls++
				assert.Equal(t, 0, start)
				assert.Equal(t, tt.n, end)
			}, tt.cfg)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestForChunks_Empty(t *testing.T) {
	ForChunks(0, func(_, _ int) {
		t.Fatal("f must not be called for an empty range")
	}, DefaultConfig())
}

func TestWithMinChunk(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.WithMinChunk(1).MinChunkSize)
	assert.Equal(t, 64, cfg.MinChunkSize, "receiver must be unchanged")
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	data := make([]float32, 10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		For(len(data), func(j int) {
			data[j] *= 2.0
		}, cfg)
	}
}
