package config

import (
    "os"
    "time"
)

// CacheConfig defines the lifetimes of the derived projections kept in
// Redis.  Sessions live under session:<userID> and are written on every
// login/refresh; entity projections live under user:<id> and role:<id>
// and are repopulated on cache misses.  All of these are expendable: a
// lost key only costs one database round trip.
type CacheConfig struct {
    SessionTTL time.Duration // lifetime of session snapshots
    UserTTL    time.Duration // lifetime of cached user projections
    RoleTTL    time.Duration // lifetime of cached role projections
}

// LoadCacheConfig reads cache TTLs from the environment.  Defaults follow
// the documented policy: sessions one hour, users 30 minutes, roles an
// hour.  Values are parsed with time.ParseDuration (e.g. "45m", "2h").
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        SessionTTL: envDur("CACHE_SESSION_TTL", time.Hour),
        UserTTL:    envDur("CACHE_USER_TTL", 30*time.Minute),
        RoleTTL:    envDur("CACHE_ROLE_TTL", time.Hour),
    }
}

func envDur(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    d, err := time.ParseDuration(v)
    if err != nil {
        return def
    }
    return d
}
