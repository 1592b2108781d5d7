package memory

import (
	"context"
	"testing"
	"time"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Set(ctx, "abc", payload{Name: "SITE42", Count: 3}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got payload
	ok, err := s.Get(ctx, "abc", &got)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Name != "SITE42" || got.Count != 3 {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestStoreMiss(t *testing.T) {
	s := NewStore()

	var got payload
	ok, err := s.Get(context.Background(), "nope", &got)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Fatal("did not expect cache hit")
	}
}

func TestStoreExpiry(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Set(ctx, "abc", payload{Name: "SITE42"}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	now = now.Add(2 * time.Minute)

	var got payload
	ok, err := s.Get(ctx, "abc", &got)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Fatal("expected entry to have expired")
	}
}

func TestStoreInvalidate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Set(ctx, "abc", payload{Name: "SITE42"}, 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := s.Invalidate(ctx, "abc"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	var got payload
	ok, _ := s.Get(ctx, "abc", &got)
	if ok {
		t.Fatal("expected entry to be gone after invalidation")
	}
}
