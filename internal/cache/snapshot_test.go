package cache

import (
	"testing"
	"time"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewSnapshot[int](time.Minute)

	if _, ok := s.Get(); ok {
		t.Fatal("empty snapshot must miss")
	}

	s.Set(42)
	v, ok := s.Get()
	if !ok || v != 42 {
		t.Fatalf("Get() = %d, %v; want 42, true", v, ok)
	}
}

func TestSnapshotInvalidate(t *testing.T) {
	s := NewSnapshot[string](time.Minute)
	s.Set("summary")
	s.Invalidate()

	if _, ok := s.Get(); ok {
		t.Fatal("invalidated snapshot must miss")
	}
}

func TestSnapshotTTLExpiry(t *testing.T) {
	s := NewSnapshot[int](time.Millisecond)
	s.Set(1)
	time.Sleep(5 * time.Millisecond)

	if _, ok := s.Get(); ok {
		t.Fatal("expired snapshot must miss")
	}
}
