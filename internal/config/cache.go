package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled. KeyStrategy is CacheKeyUserRouteQuery (the default) or
// CacheKeyUserRoute; both key entries by caller. Any successful write bumps
// a version counter stored under Prefix so cached reads never outlive a
// mutation.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// Cache key strategies. Strategies without the caller are not offered.
const (
	CacheKeyUserRouteQuery = "user_route_query"
	CacheKeyUserRoute      = "user_route"
)

// LoadCacheConfig reads CACHE_* variables. All methods are upper-cased and
// an unknown key strategy falls back to CacheKeyUserRouteQuery.
func LoadCacheConfig() CacheConfig {
	strategy := strings.ToLower(strings.TrimSpace(envStr("CACHE_KEY_STRATEGY", CacheKeyUserRouteQuery)))
	if strategy != CacheKeyUserRoute {
		strategy = CacheKeyUserRouteQuery
	}
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  strategy,
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
