package ringbuffer

import (
	"sync"
	"testing"
)

func TestBuffer_EvictsOldest(t *testing.T) {
	b := New[int](1000)
	for i := 0; i < 1050; i++ {
		b.Push(i)
	}

	if b.Len() != 1000 {
		t.Fatalf("Len() = %d, want 1000", b.Len())
	}
	items := b.Snapshot()
	if items[0] != 50 {
		t.Errorf("oldest = %d, want 50", items[0])
	}
	if items[len(items)-1] != 1049 {
		t.Errorf("newest = %d, want 1049", items[len(items)-1])
	}
	if b.Total() != 1050 {
		t.Errorf("Total() = %d, want 1050", b.Total())
	}
}

func TestBuffer_Last(t *testing.T) {
	tests := []struct {
		name   string
		pushed int
		n      int
		want   []int
	}{
		{name: "empty", pushed: 0, n: 3, want: nil},
		{name: "fewer than n", pushed: 2, n: 5, want: []int{0, 1}},
		{name: "exact window", pushed: 10, n: 3, want: []int{7, 8, 9}},
		{name: "wrapped", pushed: 7, n: 4, want: []int{3, 4, 5, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New[int](5)
			for i := 0; i < tt.pushed; i++ {
				b.Push(i)
			}
			got := b.Last(tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("Last(%d) = %v, want %v", tt.n, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Last(%d) = %v, want %v", tt.n, got, tt.want)
					break
				}
			}
		})
	}
}

func TestBuffer_ConcurrentPush(t *testing.T) {
	b := New[int](100)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				b.Push(i)
			}
		}()
	}
	wg.Wait()

	if b.Len() != 100 || b.Total() != 4000 {
		t.Errorf("Len() = %d, Total() = %d; want 100, 4000", b.Len(), b.Total())
	}
}
