package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func setRequired(t *testing.T) {
    t.Setenv("APP_ENV", "dev")
    t.Setenv("APP_PORT", "8080")
    t.Setenv("JWT_SECRET", "secret")
    t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
    t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
    t.Setenv("BCRYPT_COST", "4")
}

func TestLoad_MemoryDriverSkipsDatabase(t *testing.T) {
    setRequired(t)
    t.Setenv("STORE_DRIVER", "Memory")
    t.Setenv("NOTIFY_MODE", "")

    cfg := Load()

    assert.Equal(t, StoreMemory, cfg.StoreDriver)
    assert.Empty(t, cfg.DBHost)
    assert.Equal(t, NotifyDirect, cfg.NotifyMode)
    assert.Equal(t, 1000, cfg.CodeMaxAttempts)
    assert.Equal(t, 15, cfg.AccessTTLMin)
    assert.True(t, cfg.IsDev())
}

func TestLoad_MySQLDriver(t *testing.T) {
    setRequired(t)
    t.Setenv("APP_ENV", "prod")
    t.Setenv("STORE_DRIVER", "mysql")
    t.Setenv("DB_USER", "app")
    t.Setenv("DB_HOST", "db")
    t.Setenv("DB_PORT", "3306")
    t.Setenv("DB_NAME", "duoverkoop")
    t.Setenv("NOTIFY_MODE", "queue")
    t.Setenv("CODE_MAX_ATTEMPTS", "50")

    cfg := Load()

    assert.Equal(t, "db", cfg.DBHost)
    assert.Equal(t, NotifyQueue, cfg.NotifyMode)
    assert.Equal(t, 50, cfg.CodeMaxAttempts)
    assert.False(t, cfg.IsDev())
}

func TestEnvReaders(t *testing.T) {
    t.Setenv("X_BOOL", "Yes")
    t.Setenv("X_INT", "nope")
    t.Setenv("X_DUR", "2m")
    t.Setenv("X_LIST", " get, ,head ")

    assert.True(t, envBool("X_BOOL", false))
    assert.True(t, envBool("X_MISSING", true))
    assert.Equal(t, 7, envInt("X_INT", 7))
    assert.Equal(t, 2*time.Minute, envDur("X_DUR", time.Second))
    assert.Equal(t, []string{"get", "head"}, envList("X_LIST", ""))
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "10s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    c := LoadRateLimitConfig()

    assert.Equal(t, 1, c.Capacity)
    assert.Equal(t, 50*time.Second, c.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get,head")

    c := LoadCacheConfig()

    assert.True(t, c.Methods["GET"])
    assert.True(t, c.Methods["HEAD"])
    assert.Equal(t, 30*time.Second, c.TTL)
}

func TestLoadRedisConfig_HostPortWins(t *testing.T) {
    t.Setenv("REDIS_ADDR", "ignored:1")
    t.Setenv("REDIS_HOST", "cache")
    t.Setenv("REDIS_PORT", "6380")

    assert.Equal(t, "cache:6380", LoadRedisConfig().Addr)
    assert.Nil(t, NewRedisClient(RedisConfig{Enabled: false}))
}
