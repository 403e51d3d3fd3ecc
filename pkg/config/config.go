package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Output sinks understood by OUTPUT_SINK.
const (
	SinkGeoJSON = "geojson"
	SinkMySQL   = "mysql"
	SinkRedis   = "redis"
)

type Config struct {
	Port        string
	WorkerCount int
	QueueSize   int
	JobTimeout  time.Duration
	WriteRPS    int // sink writes per second; 0 = unlimited

	// Output
	OutputSink string // geojson, mysql or redis
	OutputPath string // geojson file; "-" or empty = stdout

	// Adapter -> country overrides; empty = embedded table only
	AdapterTablePath string

	// MySQL sink
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime int // minutes
	DBConnMaxIdleTime int // minutes
	DBWriteTimeout    time.Duration

	// Circuit breaker around mysql and redis writes
	BreakerFailures int // consecutive failures before opening; 0 = disabled
	BreakerOpenFor  time.Duration

	// Redis sink
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisGeoKey   string

	// Logging
	LogLevel    string
	LogFormat   string // "json" or "text"
	LogOutput   string // stdout, stderr or a file path
	LogAsync    bool
	MetricsPath string

	ProfilingEnabled bool
}

func Load() *Config {
	workerCount, _ := strconv.Atoi(getEnv("WORKER_COUNT", "0")) // 0 = one per CPU, at most 32
	if workerCount <= 0 {
		workerCount = min(runtime.NumCPU(), 32)
	}
	queueSize, _ := strconv.Atoi(getEnv("QUEUE_SIZE", "1000"))
	jobTimeout, _ := time.ParseDuration(getEnv("JOB_TIMEOUT", "10s"))
	writeRPS, _ := strconv.Atoi(getEnv("WRITE_RPS", "0"))

	dbMaxOpenConns, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "20"))
	dbMaxIdleConns, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))
	dbConnMaxLifetime, _ := strconv.Atoi(getEnv("DB_CONN_MAX_LIFETIME_MINUTES", "10"))
	dbConnMaxIdleTime, _ := strconv.Atoi(getEnv("DB_CONN_MAX_IDLE_TIME_MINUTES", "5"))
	dbWriteTO, _ := time.ParseDuration(getEnv("DB_WRITE_TIMEOUT", "6s"))

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	logAsync, _ := strconv.ParseBool(getEnv("LOG_ASYNC", "false"))
	breakerFailures, _ := strconv.Atoi(getEnv("BREAKER_FAILURES", "5"))
	breakerOpenFor, _ := time.ParseDuration(getEnv("BREAKER_OPEN_FOR", "30s"))
	profiling, _ := strconv.ParseBool(getEnv("PROFILING_ENABLED", "false"))

	return &Config{
		Port:        getEnv("PORT", "8080"),
		WorkerCount: workerCount,
		QueueSize:   queueSize,
		JobTimeout:  jobTimeout,
		WriteRPS:    writeRPS,

		OutputSink: strings.ToLower(getEnv("OUTPUT_SINK", SinkGeoJSON)),
		OutputPath: getEnv("OUTPUT_PATH", "-"),

		AdapterTablePath: getEnv("ADAPTER_TABLE", ""),

		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:    dbMaxOpenConns,
		DBMaxIdleConns:    dbMaxIdleConns,
		DBConnMaxLifetime: dbConnMaxLifetime,
		DBConnMaxIdleTime: dbConnMaxIdleTime,
		DBWriteTimeout:    dbWriteTO,

		BreakerFailures: breakerFailures,
		BreakerOpenFor:  breakerOpenFor,

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		RedisGeoKey:   getEnv("REDIS_GEO_KEY", "locations"),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		LogOutput:   getEnv("LOG_OUTPUT", "stderr"),
		LogAsync:    logAsync,
		MetricsPath: getEnv("METRICS_PATH", "/metrics"),

		ProfilingEnabled: profiling,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
