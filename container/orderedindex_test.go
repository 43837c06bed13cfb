package container

import "testing"

func TestOrderedIndexSetGetDelete(t *testing.T) {
	oi := NewOrderedIndex[int, string]()
	oi.Set(5, "five")
	oi.Set(1, "one")
	oi.Set(3, "three")

	if v, ok := oi.Get(3); !ok || v != "three" {
		t.Fatalf("Get(3) = (%q, %v), want (three, true)", v, ok)
	}
	if oi.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", oi.Len())
	}

	oi.Delete(1)
	if _, ok := oi.Get(1); ok {
		t.Fatalf("expected 1 to be gone after Delete")
	}
	if oi.Len() != 2 {
		t.Fatalf("Len() after delete = %d, want 2", oi.Len())
	}
}

func TestOrderedIndexSetOverwrites(t *testing.T) {
	oi := NewOrderedIndex[int, string]()
	oi.Set(1, "a")
	oi.Set(1, "b")
	if v, _ := oi.Get(1); v != "b" {
		t.Fatalf("Get(1) = %q, want b", v)
	}
	if oi.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", oi.Len())
	}
}

func TestOrderedIndexRangeIsAscendingAndHalfOpen(t *testing.T) {
	oi := NewOrderedIndex[int, int]()
	for _, k := range []int{10, 20, 30, 40, 50} {
		oi.Set(k, k*10)
	}

	var got []int
	for k, v := range oi.Range(20, 40) {
		if v != k*10 {
			t.Fatalf("Range value for key %d = %d, want %d", k, v, k*10)
		}
		got = append(got, k)
	}
	want := []int{20, 30}
	if len(got) != len(want) {
		t.Fatalf("Range(20,40) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Range(20,40) = %v, want %v", got, want)
		}
	}
}

func TestOrderedIndexAllIsAscending(t *testing.T) {
	oi := NewOrderedIndex[int, int]()
	for _, k := range []int{3, 1, 4, 1, 5, 9} {
		oi.Set(k, k)
	}
	var prev int
	first := true
	for k, v := range oi.All() {
		if v != k {
			t.Fatalf("All value for key %d = %d, want %d", k, v, k)
		}
		if !first && k < prev {
			t.Fatalf("All() not ascending: %d after %d", k, prev)
		}
		prev = k
		first = false
	}
}
