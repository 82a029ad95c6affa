package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_AllowBurst(t *testing.T) {
	l := New(1, 2)

	if !l.Allow("host") {
		t.Fatal("first event should be allowed")
	}
	if !l.Allow("host") {
		t.Fatal("second event should be allowed by burst")
	}
	if l.Allow("host") {
		t.Error("third event should be limited")
	}

	// Other keys have their own bucket.
	if !l.Allow("other") {
		t.Error("independent key should be allowed")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	l := Unlimited()
	for i := 0; i < 100; i++ {
		if !l.Allow(KeyPush) {
			t.Fatalf("event %d was limited", i)
		}
	}
}

func TestLimiter_WaitCanceled(t *testing.T) {
	l := New(0.001, 1)
	l.Allow("slow")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "slow"); err == nil {
		t.Error("Wait() expected error when the context ends first, got nil")
	}
}

func TestLimiter_Set(t *testing.T) {
	l := New(0.001, 1)
	l.Set(KeyPush, 0, 1)

	for i := 0; i < 10; i++ {
		if !l.Allow(KeyPush) {
			t.Fatalf("event %d was limited after override", i)
		}
	}
}

func TestLimiter_Nil(t *testing.T) {
	var l *Limiter
	if err := l.Wait(context.Background(), KeyPush); err != nil {
		t.Errorf("nil limiter Wait() = %v, want nil", err)
	}
	if !l.Allow(KeyPush) {
		t.Error("nil limiter should allow")
	}
}
