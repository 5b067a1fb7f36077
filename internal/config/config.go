// Package config provides configuration loading from environment variables
// and the YAML stores catalog.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/usestring/storeschema-mcp/pkg/fieldinfer"
	"github.com/usestring/storeschema-mcp/pkg/inference"
	"github.com/usestring/storeschema-mcp/pkg/keypattern"
	"github.com/usestring/storeschema-mcp/pkg/sampler"
)

// Sampling and output defaults
const (
	DefaultSampleKeysPerPattern = 10
	DefaultSampleKeysPerPrefix  = 5
	DefaultMaxPrefixes          = 50
	DefaultMaxPatterns          = 200
	DefaultMaxCollections       = 20
)

// Config holds all configuration for the MCP server.
type Config struct {
	StoresFile          string        // STORES_FILE, default "stores.yaml"
	MaxSampleItems      int           // MAX_SAMPLE_ITEMS, default 1000
	MaxScanIterations   int           // MAX_SCAN_ITERATIONS, default 1000
	ScanBatchSize       int           // SCAN_BATCH_SIZE, default 100
	TypeLookupWorkers   int           // TYPE_LOOKUP_WORKERS, default 8
	PassTimeout         time.Duration // PASS_TIMEOUT_MS, default 30000ms (30s)
	ConnectTimeout      time.Duration // CONNECT_TIMEOUT_MS, default 10000ms (10s)
	ResultCacheMaxItems int           // RESULT_CACHE_MAX_ITEMS, default 256
	HTTPAddr            string        // HTTP_ADDR, default ":8080"

	// Output bounds
	SampleKeysPerPattern int // SAMPLE_KEYS_PER_PATTERN
	SampleKeysPerPrefix  int // SAMPLE_KEYS_PER_PREFIX
	MaxPrefixes          int // MAX_PREFIXES
	MaxPatterns          int // MAX_PATTERNS
	MaxFieldDepth        int // MAX_FIELD_DEPTH
	MaxFieldPaths        int // MAX_FIELD_PATHS
	MaxCollections       int // MAX_COLLECTIONS

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		StoresFile:          getEnvString("STORES_FILE", "stores.yaml"),
		MaxSampleItems:      getEnvInt("MAX_SAMPLE_ITEMS", sampler.DefaultMaxItems),
		MaxScanIterations:   getEnvInt("MAX_SCAN_ITERATIONS", sampler.DefaultMaxIterations),
		ScanBatchSize:       getEnvInt("SCAN_BATCH_SIZE", inference.DefaultBatchSize),
		TypeLookupWorkers:   getEnvInt("TYPE_LOOKUP_WORKERS", inference.DefaultWorkers),
		PassTimeout:         getEnvDurationMs("PASS_TIMEOUT_MS", 30000),
		ConnectTimeout:      getEnvDurationMs("CONNECT_TIMEOUT_MS", 10000),
		ResultCacheMaxItems: getEnvInt("RESULT_CACHE_MAX_ITEMS", 256),
		HTTPAddr:            getEnvString("HTTP_ADDR", ":8080"),

		SampleKeysPerPattern: getEnvInt("SAMPLE_KEYS_PER_PATTERN", DefaultSampleKeysPerPattern),
		SampleKeysPerPrefix:  getEnvInt("SAMPLE_KEYS_PER_PREFIX", DefaultSampleKeysPerPrefix),
		MaxPrefixes:          getEnvInt("MAX_PREFIXES", DefaultMaxPrefixes),
		MaxPatterns:          getEnvInt("MAX_PATTERNS", DefaultMaxPatterns),
		MaxFieldDepth:        getEnvInt("MAX_FIELD_DEPTH", fieldinfer.DefaultMaxDepth),
		MaxFieldPaths:        getEnvInt("MAX_FIELD_PATHS", fieldinfer.DefaultMaxPaths),
		MaxCollections:       getEnvInt("MAX_COLLECTIONS", DefaultMaxCollections),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// EngineOptions maps the configuration onto inference engine options.
func (c *Config) EngineOptions() inference.Options {
	return inference.Options{
		Limits: sampler.Limits{
			MaxItems:      c.MaxSampleItems,
			MaxIterations: c.MaxScanIterations,
		},
		BatchSize:   c.ScanBatchSize,
		Workers:     c.TypeLookupWorkers,
		SampleKeys:  c.SampleKeysPerPattern,
		MaxPatterns: c.MaxPatterns,
		Separator:   keypattern.DefaultSeparatorOptions(),
		Hierarchy: keypattern.HierarchyOptions{
			MaxPrefixes: c.MaxPrefixes,
			SampleKeys:  c.SampleKeysPerPrefix,
		},
		Fields: fieldinfer.Options{
			MaxDepth: c.MaxFieldDepth,
			MaxPaths: c.MaxFieldPaths,
		},
		PassTimeout: c.PassTimeout,
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
