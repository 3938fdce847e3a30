package assignment

import "testing"

func TestRoundRobinCycles(t *testing.T) {
	rr := NewRoundRobin()

	want := []int{0, 1, 2, 0, 1, 2}
	for i, w := range want {
		if got := rr.Next(3); got != w {
			t.Fatalf("call %d: Next(3) = %d, want %d", i, got, w)
		}
	}
}

func TestRoundRobinEmptyPool(t *testing.T) {
	rr := NewRoundRobin()
	if got := rr.Next(0); got != -1 {
		t.Fatalf("Next(0) = %d, want -1", got)
	}
	if got := rr.Next(-3); got != -1 {
		t.Fatalf("Next(-3) = %d, want -1", got)
	}
}

func TestRoundRobinSurvivesPoolShrink(t *testing.T) {
	rr := NewRoundRobin()
	rr.Next(5)
	rr.Next(5)

	// A shrunk pool must still yield an in-range index.
	for i := 0; i < 10; i++ {
		got := rr.Next(2)
		if got < 0 || got > 1 {
			t.Fatalf("Next(2) = %d, out of range", got)
		}
	}
}

func TestRandomStaysInRange(t *testing.T) {
	r := NewRandom(42)
	for i := 0; i < 100; i++ {
		got := r.Next(4)
		if got < 0 || got > 3 {
			t.Fatalf("Next(4) = %d, out of range", got)
		}
	}
	if got := r.Next(0); got != -1 {
		t.Fatalf("Next(0) = %d, want -1", got)
	}
}
