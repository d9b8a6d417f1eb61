package cache

import (
	"context"
	"strings"
)

// Open returns the cache named by location:
//
//	""           NullCache
//	redis://...  RedisCache (also rediss://)
//	anything     FileCache rooted at that directory
func Open(ctx context.Context, location string) (Cache, error) {
	switch {
	case location == "" || location == "none":
		return NewNullCache(), nil
	case strings.HasPrefix(location, "redis://"), strings.HasPrefix(location, "rediss://"):
		c, err := NewRedisCache(ctx, location, "")
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	c, err := NewFileCache(location)
	if err != nil {
		return nil, err
	}
	return c, nil
}
