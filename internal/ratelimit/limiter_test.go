package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestGetLimiter_Singleton(t *testing.T) {
	if GetLimiter() != GetLimiter() {
		t.Error("GetLimiter() returned different instances")
	}
}

func TestNew_TestModeDefaultsAreUnlimited(t *testing.T) {
	l := New(nil)

	for i := 0; i < 50; i++ {
		if !l.Allow(APIOneInch) {
			t.Fatalf("Allow() denied request %d in test mode", i)
		}
	}
}

func TestNew_OverridesApplyInTestMode(t *testing.T) {
	l := New(map[API]float64{APIOneInch: 0.001})

	if !l.Allow(APIOneInch) {
		t.Fatal("Allow() denied the first request")
	}
	if l.Allow(APIOneInch) {
		t.Error("Allow() permitted a second request despite the override")
	}

	// APIs without an override keep the unlimited test default
	for i := 0; i < 50; i++ {
		if !l.Allow(APIZeroEx) {
			t.Fatalf("Allow() denied request %d for an API without override", i)
		}
	}
}

func TestWait_UnknownAPI(t *testing.T) {
	l := New(nil)

	if err := l.Wait(context.Background(), API("unknown")); err != nil {
		t.Errorf("Wait() for unknown API returned error: %v", err)
	}
	if !l.Allow(API("unknown")) {
		t.Error("Allow() for unknown API returned false")
	}
}

func TestSet_EnforcesLimit(t *testing.T) {
	l := New(nil)
	l.Set(APIAlchemy, 0.001)

	if !l.Allow(APIAlchemy) {
		t.Fatal("first request should use the burst token")
	}
	if l.Allow(APIAlchemy) {
		t.Error("second request should be rate limited")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, APIAlchemy); err == nil {
		t.Error("Wait() should fail when the context expires before a token is available")
	}
}

func TestSet_NonPositiveRemovesLimit(t *testing.T) {
	l := New(nil)
	l.Set(APIZeroEx, 0)

	for i := 0; i < 10; i++ {
		if !l.Allow(APIZeroEx) {
			t.Fatalf("Allow() denied request %d after limit removal", i)
		}
	}
}
