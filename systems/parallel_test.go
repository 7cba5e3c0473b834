package systems

import (
	"sync/atomic"
	"testing"
)

func TestPoolCoversEveryItemOnce(t *testing.T) {
	tests := []struct {
		name string
		pool *Pool
		n    int
	}{
		{"nil pool", nil, 500},
		{"below threshold", NewPool(4), parallelThreshold - 1},
		{"parallel", NewPool(4), 1000},
		{"uneven chunks", NewPool(3), 1001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer tt.pool.Stop()
			hits := make([]int32, tt.n)
			for round := 0; round < 3; round++ {
				tt.pool.Run(tt.n, func(start, end, worker int) {
					if worker < 0 || worker >= tt.pool.Workers() {
						t.Errorf("worker index %d out of range", worker)
					}
					for i := start; i < end; i++ {
						atomic.AddInt32(&hits[i], 1)
					}
				})
			}
			for i, h := range hits {
				if h != 3 {
					t.Fatalf("item %d processed %d times, want 3", i, h)
				}
			}
		})
	}
}

func TestPoolStopIsIdempotent(t *testing.T) {
	p := NewPool(2)
	p.Run(200, func(int, int, int) {})
	p.Stop()
	p.Stop()

	var nilPool *Pool
	nilPool.Stop()
	if nilPool.Workers() != 1 {
		t.Errorf("nil pool Workers = %d, want 1", nilPool.Workers())
	}
}
