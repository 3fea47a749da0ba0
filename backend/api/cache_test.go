package api

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tenntenn/minilang/backend/pipeline"
)

func TestCacheLoadsOnce(t *testing.T) {
	c := newCache(4)
	var calls atomic.Int32
	load := func(context.Context) (*pipeline.Output, error) {
		calls.Add(1)
		return &pipeline.Output{Fingerprint: "h1:x"}, nil
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.get(ctx, "k", load); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	// Concurrent callers may race the first add, but a settled cache never
	// loads again.
	before := calls.Load()
	if _, err := c.get(ctx, "k", load); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != before {
		t.Errorf("cached entry was loaded again")
	}
}

func TestCacheEviction(t *testing.T) {
	c := newCache(2)
	loads := map[string]int{}
	get := func(key string) {
		c.get(context.Background(), key, func(context.Context) (*pipeline.Output, error) {
			loads[key]++
			return &pipeline.Output{}, nil
		})
	}

	get("a")
	get("b")
	get("a") // a is now most recent
	get("c") // evicts b
	get("a")
	get("b")

	if c.len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.len())
	}
	if loads["a"] != 1 || loads["b"] != 2 || loads["c"] != 1 {
		t.Errorf("unexpected loads %v", loads)
	}
}

func TestCacheDisabled(t *testing.T) {
	c := newCache(0)
	var calls int
	for i := 0; i < 3; i++ {
		c.get(context.Background(), "k", func(context.Context) (*pipeline.Output, error) {
			calls++
			return &pipeline.Output{}, nil
		})
	}
	if calls != 3 || c.len() != 0 {
		t.Errorf("expected 3 loads and no entries, got %d loads and %d entries", calls, c.len())
	}
}

func TestCacheSkipsErrors(t *testing.T) {
	c := newCache(2)
	boom := errors.New("boom")
	_, err := c.get(context.Background(), "k", func(context.Context) (*pipeline.Output, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if c.len() != 0 {
		t.Errorf("failed load was cached")
	}
}

func TestCacheCallerCancel(t *testing.T) {
	c := newCache(2)
	var (
		startOnce sync.Once
		started   = make(chan struct{})
		release   = make(chan struct{})
	)
	load := func(ctx context.Context) (*pipeline.Output, error) {
		startOnce.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &pipeline.Output{Fingerprint: "h1:x"}, nil
	}

	type result struct {
		out *pipeline.Output
		err error
	}
	first, second := make(chan result, 1), make(chan result, 1)

	ctx1, cancel1 := context.WithCancel(context.Background())
	go func() {
		out, err := c.get(ctx1, "k", load)
		first <- result{out, err}
	}()
	<-started

	go func() {
		out, err := c.get(context.Background(), "k", load)
		second <- result{out, err}
	}()

	// The first caller leaves while the shared load is still running.
	cancel1()
	if r := <-first; !errors.Is(r.err, context.Canceled) {
		t.Errorf("first caller: expected context.Canceled, got %v", r.err)
	}

	close(release)
	r := <-second
	if r.err != nil {
		t.Fatalf("second caller: unexpected error %v", r.err)
	}
	if r.out == nil || r.out.Fingerprint != "h1:x" {
		t.Errorf("second caller: unexpected output %+v", r.out)
	}
}

func TestSteps(t *testing.T) {
	tests := []struct {
		limit, requested, want int64
	}{
		{0, 0, 0},
		{0, 5, 5},
		{10, 0, 10},
		{10, 5, 5},
		{10, 50, 10},
	}
	for _, tt := range tests {
		h := NewToolchainServiceHandler(WithMaxSteps(tt.limit))
		if got := h.steps(tt.requested); got != tt.want {
			t.Errorf("steps(%d) with limit %d = %d, want %d", tt.requested, tt.limit, got, tt.want)
		}
	}
}
