package sidon

import "testing"

func TestSumSetBasic(t *testing.T) {
	s := NewSumSet()

	if s.Contains(42) {
		t.Error("empty set contains 42")
	}
	if !s.Add(42) {
		t.Error("first Add(42) returned false")
	}
	if s.Add(42) {
		t.Error("second Add(42) returned true")
	}
	if !s.Contains(42) {
		t.Error("set does not contain 42 after Add")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	if !s.Remove(42) {
		t.Error("Remove(42) returned false")
	}
	if s.Remove(42) {
		t.Error("second Remove(42) returned true")
	}
	if s.Contains(42) || s.Len() != 0 {
		t.Error("set not empty after Remove")
	}
}

func TestSumSetGrowth(t *testing.T) {
	s := NewSumSet()

	// Push well past the initial bucket count to force several resizes.
	const count = 50000
	for i := uint64(1); i <= count; i++ {
		if !s.Add(i * 7919) {
			t.Fatalf("Add(%d) returned false", i*7919)
		}
	}
	if s.Len() != count {
		t.Fatalf("Len = %d, want %d", s.Len(), count)
	}
	for i := uint64(1); i <= count; i++ {
		if !s.Contains(i * 7919) {
			t.Fatalf("lost value %d after growth", i*7919)
		}
	}
	if s.Contains(3) {
		t.Error("set contains value that was never added")
	}

	// Load factor must stay at or below 0.75 after growth.
	if uint64(s.Len())*4 > uint64(len(s.buckets))*3 {
		t.Errorf("load factor above 0.75: %d values in %d buckets", s.Len(), len(s.buckets))
	}
}

func TestSumSetClearReusesNodes(t *testing.T) {
	s := NewSumSet()
	for i := uint64(1); i <= 2000; i++ {
		s.Add(i)
	}
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Len = %d after Clear, want 0", s.Len())
	}

	// Everything re-adds cleanly onto the pooled nodes.
	for i := uint64(1); i <= 2000; i++ {
		if !s.Add(i) {
			t.Fatalf("Add(%d) returned false after Clear", i)
		}
	}
	if s.Len() != 2000 {
		t.Fatalf("Len = %d, want 2000", s.Len())
	}
}

func TestSumSetAppendAll(t *testing.T) {
	s := NewSumSet()
	want := map[uint64]bool{}
	for i := uint64(1); i <= 100; i++ {
		v := i * i
		s.Add(v)
		want[v] = true
	}

	got := s.AppendAll(nil)
	if len(got) != len(want) {
		t.Fatalf("AppendAll returned %d values, want %d", len(got), len(want))
	}
	for _, v := range got {
		if !want[v] {
			t.Errorf("AppendAll returned unexpected value %d", v)
		}
		delete(want, v)
	}
}

func BenchmarkSumSetAddRemove(b *testing.B) {
	s := NewSumSet()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v := uint64(i)%100000 + 1
		s.Add(v)
		s.Remove(v)
	}
}
