package ristretto

import (
	"context"
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	val, found, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected hit after Set")
	}
	if string(val) != "v" {
		t.Fatalf("expected v, got %s", val)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Fatal("expected miss after Delete")
	}
}

func TestTTLExpiry(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)

	if _, found, _ := c.Get(ctx, "short"); found {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestClear(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), time.Minute)
	_ = c.Set(ctx, "b", []byte("2"), time.Minute)
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, "a"); found {
		t.Fatal("expected miss after Clear")
	}
	if _, found, _ := c.Get(ctx, "b"); found {
		t.Fatal("expected miss after Clear")
	}
}
