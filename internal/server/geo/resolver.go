package geo

import (
	"context"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/logging"
)

// Resolver maps a source address to a location label.
type Resolver interface {
	Resolve(ctx context.Context, addr string) string
}

// Lookuper is a fallible lookup of an already normalized IP.
type Lookuper interface {
	Lookup(ctx context.Context, ip string) (string, error)
}

// StaticResolver answers every address with the same label.
type StaticResolver struct {
	Label string
}

func (s StaticResolver) Resolve(context.Context, string) string {
	if s.Label == "" {
		return UnknownLocation
	}
	return s.Label
}

// CachedResolver normalizes the address (private ranges resolve as the
// sentinel), consults Cache and falls back to
// the upstream Lookuper. Only successful lookups are cached; cache errors
// are logged and treated as misses.
type CachedResolver struct {
	upstream Lookuper
	cache    Cache
	ttl      time.Duration
	logger   logging.Logger
}

func NewCachedResolver(upstream Lookuper, cache Cache, ttl time.Duration, logger logging.Logger) *CachedResolver {
	return &CachedResolver{
		upstream: upstream,
		cache:    cache,
		ttl:      ttl,
		logger:   logger.With("module", "geo"),
	}
}

func (r *CachedResolver) Resolve(ctx context.Context, addr string) string {
	ip := lookupAddress(NormalizeAddress(addr))

	if r.cache != nil {
		label, ok, err := r.cache.Get(ctx, ip)
		if err != nil {
			r.logger.Warn(ctx, "geo cache read failed", "ip", ip, "error", err)
		} else if ok {
			return label
		}
	}

	label, err := r.upstream.Lookup(ctx, ip)
	if err != nil {
		r.logger.Debug(ctx, "geo lookup failed", "ip", ip, "error", err)
		return UnknownLocation
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, ip, label, r.ttl); err != nil {
			r.logger.Warn(ctx, "geo cache write failed", "ip", ip, "error", err)
		}
	}
	return label
}
