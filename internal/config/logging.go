package config

// LogConfig controls the zap logger built by internal/logger.
type LogConfig struct {
    Level       string // debug, info, warn, error
    Development bool   // console encoder with colors instead of JSON
    File        string // optional rotating log file; empty logs to stdout only
    MaxSizeMB   int
    MaxBackups  int
    MaxAgeDays  int
    ServiceName string
}

// LoadLogConfig reads LOG_* variables.
func LoadLogConfig() LogConfig {
    return LogConfig{
        Level:       envStr("LOG_LEVEL", "info"),
        Development: envBool("LOG_DEVELOPMENT", false),
        File:        envStr("LOG_FILE", ""),
        MaxSizeMB:   envInt("LOG_MAX_SIZE_MB", 100),
        MaxBackups:  envInt("LOG_MAX_BACKUPS", 3),
        MaxAgeDays:  envInt("LOG_MAX_AGE_DAYS", 28),
        ServiceName: envStr("LOG_SERVICE_NAME", "duoverkoop"),
    }
}
