package agents

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewHealthCache(t *testing.T) {
	ttl := 30 * time.Second
	cache := NewHealthCache(ttl)

	if cache.TTL() != ttl {
		t.Errorf("TTL() = %v, want %v", cache.TTL(), ttl)
	}

	available, valid := cache.Get()
	if valid || available {
		t.Error("new cache should be empty")
	}
}

func TestHealthCache_SetAndGet(t *testing.T) {
	cache := NewHealthCache(30 * time.Second)

	cache.Set(true)
	available, valid := cache.Get()
	if !valid || !available {
		t.Errorf("Get = (%v, %v), want (true, true)", available, valid)
	}

	cache.Set(false)
	available, valid = cache.Get()
	if !valid || available {
		t.Errorf("Get = (%v, %v), want (false, true)", available, valid)
	}
}

func TestHealthCache_TTLExpiration(t *testing.T) {
	cache := NewHealthCache(10 * time.Millisecond)
	cache.Set(true)

	time.Sleep(15 * time.Millisecond)

	if _, valid := cache.Get(); valid {
		t.Error("cache should be invalid after TTL expires")
	}
}

func TestHealthCache_Invalidate(t *testing.T) {
	cache := NewHealthCache(30 * time.Second)
	cache.Set(true)
	cache.Invalidate()

	if _, valid := cache.Get(); valid {
		t.Error("cache should be invalid after Invalidate")
	}
}

func TestHealthCache_ZeroTTL(t *testing.T) {
	cache := NewHealthCache(0)
	cache.Set(true)

	if _, valid := cache.Get(); valid {
		t.Error("zero TTL cache should never be valid")
	}
}

func TestHealthCache_Check(t *testing.T) {
	cache := NewHealthCache(30 * time.Second)
	probes := 0
	probe := func(ctx context.Context) bool {
		probes++
		return false
	}

	for i := 0; i < 3; i++ {
		if cache.Check(context.Background(), probe) {
			t.Error("expected cached failure")
		}
	}
	if probes != 1 {
		t.Errorf("probes = %d, want 1", probes)
	}

	cache.Invalidate()
	cache.Check(context.Background(), probe)
	if probes != 2 {
		t.Errorf("probes = %d, want 2 after invalidation", probes)
	}
}

func TestHealthCache_Concurrency(t *testing.T) {
	cache := NewHealthCache(30 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(3)
		go func(val bool) {
			defer wg.Done()
			cache.Set(val)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			cache.Get()
		}()
		go func() {
			defer wg.Done()
			cache.Check(context.Background(), func(context.Context) bool { return true })
		}()
	}
	wg.Wait()
}

func TestDefaultHealthCacheTTL(t *testing.T) {
	if DefaultHealthCacheTTL != 30*time.Second {
		t.Errorf("DefaultHealthCacheTTL = %v, want 30s", DefaultHealthCacheTTL)
	}
}
