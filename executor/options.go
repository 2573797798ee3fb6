package executor

import (
	"time"

	"github.com/caffeineduck/gorc/clvalue"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds a single invocation.
	DefaultTimeout = 30 * time.Second
	// DefaultInitTimeout bounds the initialization call of a contract.
	DefaultInitTimeout = 5 * time.Second
)

// Option configures one invocation.
type Option func(*invokeConfig)

type invokeConfig struct {
	timeout   time.Duration
	expect    clvalue.Tag
	hasExpect bool
}

func defaultInvokeConfig() invokeConfig {
	return invokeConfig{
		timeout: DefaultTimeout,
	}
}

// WithTimeout sets the execution budget of the invocation. Zero disables it.
// Expiry is a fault: the instance is closed.
func WithTimeout(d time.Duration) Option {
	return func(c *invokeConfig) {
		c.timeout = d
	}
}

// ExpectResult requires the guest to return a value tagged tag.
func ExpectResult(tag clvalue.Tag) Option {
	return func(c *invokeConfig) {
		c.expect = tag
		c.hasExpect = true
	}
}

// ExecutorOption configures the Executor at creation time.
type ExecutorOption func(*executorConfig)

type executorConfig struct {
	diskCache        bool
	cacheDir         string
	memoryLimitPages uint32 // Max memory pages (each page = 64KB), 0 = default (4GB)
	initTimeout      time.Duration
	logger           *zap.Logger
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{
		initTimeout: DefaultInitTimeout,
		logger:      zap.NewNop(),
	}
}

// WithDiskCache enables persistent compilation cache for faster CLI startup.
// Optionally provide a custom directory; otherwise uses ~/.cache/gorc or XDG_CACHE_HOME/gorc.
func WithDiskCache(dir ...string) ExecutorOption {
	return func(c *executorConfig) {
		c.diskCache = true
		if len(dir) > 0 {
			c.cacheDir = dir[0]
		}
	}
}

// WithMemoryLimit caps the linear memory of every instance.
// Use the MemoryLimit* constants for common sizes.
func WithMemoryLimit(pages uint32) ExecutorOption {
	return func(c *executorConfig) {
		c.memoryLimitPages = pages
	}
}

// WithInitTimeout bounds the contract's initialization call.
func WithInitTimeout(d time.Duration) ExecutorOption {
	return func(c *executorConfig) {
		c.initTimeout = d
	}
}

// WithLogger sets the logger used for loads, registrations and invocations.
func WithLogger(l *zap.Logger) ExecutorOption {
	return func(c *executorConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Memory limit constants (in WASM pages, each page = 64KB)
const (
	MemoryLimit1MB   uint32 = 16
	MemoryLimit16MB  uint32 = 256
	MemoryLimit64MB  uint32 = 1024
	MemoryLimit256MB uint32 = 4096
	MemoryLimit1GB   uint32 = 16384
)

// MemoryLimitPages converts a size in MiB to wasm pages.
func MemoryLimitPages(mb uint32) uint32 {
	return mb * 16
}
