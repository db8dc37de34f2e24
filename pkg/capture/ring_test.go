package capture

import (
	"bytes"
	"fmt"
	"testing"
)

func TestOverlapChunks(t *testing.T) {
	tests := []struct {
		rate    int
		chunk   int
		overlap float64
		want    int
	}{
		{16000, 1024, 5, 79}, // 16000*5/1024 = 78.125 -> 78 + 1
		{16000, 1024, 0, 1},  // always at least one chunk of slack
		{24000, 480, 2, 101}, // exact division: 100 + 1
		{16000, 16000, 1, 2},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%d/%d/%v", tc.rate, tc.chunk, tc.overlap), func(t *testing.T) {
			if got := OverlapChunks(tc.rate, tc.chunk, tc.overlap); got != tc.want {
				t.Errorf("OverlapChunks = %d; want %d", got, tc.want)
			}
		})
	}
}

func TestRingEviction(t *testing.T) {
	r := NewRing(3)
	if r.Cap() != 3 {
		t.Fatalf("Cap = %d; want 3", r.Cap())
	}

	for i := 1; i <= 4; i++ {
		r.Push([]byte{byte(i)})
	}

	if r.Len() != 3 {
		t.Errorf("Len = %d; want 3", r.Len())
	}
	snap := r.Snapshot()
	want := [][]byte{{2}, {3}, {4}}
	if len(snap) != len(want) {
		t.Fatalf("snapshot has %d chunks; want %d", len(snap), len(want))
	}
	for i := range want {
		if !bytes.Equal(snap[i], want[i]) {
			t.Errorf("snapshot[%d] = %v; want %v", i, snap[i], want[i])
		}
	}
}

func TestRingPartialFill(t *testing.T) {
	r := NewRing(5)
	r.Push([]byte{1})
	r.Push([]byte{2})

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot has %d chunks; want 2", len(snap))
	}
	if !bytes.Equal(snap[0], []byte{1}) || !bytes.Equal(snap[1], []byte{2}) {
		t.Errorf("snapshot = %v; want [[1] [2]]", snap)
	}
}

func TestRingCopiesChunks(t *testing.T) {
	r := NewRing(2)
	chunk := []byte{1, 2, 3}
	r.Push(chunk)
	chunk[0] = 99

	snap := r.Snapshot()
	if !bytes.Equal(snap[0], []byte{1, 2, 3}) {
		t.Errorf("snapshot[0] = %v; want [1 2 3] (ring must copy)", snap[0])
	}
}

func TestRingMinimumCapacity(t *testing.T) {
	r := NewRing(0)
	if r.Cap() != 1 {
		t.Errorf("Cap = %d; want 1", r.Cap())
	}
	r.Push([]byte{1})
	r.Push([]byte{2})
	snap := r.Snapshot()
	if len(snap) != 1 || !bytes.Equal(snap[0], []byte{2}) {
		t.Errorf("snapshot = %v; want [[2]]", snap)
	}
}
