package api

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/tenntenn/minilang/backend/pipeline"
)

const defaultCacheSize = 128

// loadFunc compiles one input
type loadFunc func(ctx context.Context) (*pipeline.Output, error)

// cache keeps the most recently used compiled programs. Programs are never
// mutated after Load, so one Output may be shared by concurrent runs.
type cache struct {
	group   singleflight.Group
	entries *lru.Cache[string, *pipeline.Output] // nil disables caching
}

func newCache(size int) *cache {
	c := &cache{}
	if size > 0 {
		// lru.New only fails for a non-positive size.
		c.entries, _ = lru.New[string, *pipeline.Output](size)
	}
	return c
}

// get returns the cached output for key or calls load. Only successful
// loads are stored. A shared load is not tied to any single caller, so one
// caller giving up neither cancels it nor fails the others; the caller
// itself returns as soon as ctx is done.
func (c *cache) get(ctx context.Context, key string, load loadFunc) (*pipeline.Output, error) {
	if c.entries != nil {
		if out, ok := c.entries.Get(key); ok {
			return out, nil
		}
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		out, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if c.entries != nil {
			c.entries.Add(key, out)
		}
		return out, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*pipeline.Output), nil
	}
}

func (c *cache) len() int {
	if c.entries == nil {
		return 0
	}
	return c.entries.Len()
}
