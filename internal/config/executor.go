package config

import (
	"github.com/caffeineduck/gorc/executor"
	"go.uber.org/zap"
)

// Options translates the executor section into executor options.
func (c ExecutorConfig) Options(logger *zap.Logger) []executor.ExecutorOption {
	opts := []executor.ExecutorOption{
		executor.WithInitTimeout(c.InitTimeout.Duration),
		executor.WithLogger(logger),
	}
	if c.DiskCache {
		if c.CacheDir != "" {
			opts = append(opts, executor.WithDiskCache(c.CacheDir))
		} else {
			opts = append(opts, executor.WithDiskCache())
		}
	}
	if c.MemoryMB > 0 {
		opts = append(opts, executor.WithMemoryLimit(executor.MemoryLimitPages(c.MemoryMB)))
	}
	return opts
}

// InvokeOptions returns the per-invocation defaults.
func (c ExecutorConfig) InvokeOptions() []executor.Option {
	return []executor.Option{executor.WithTimeout(c.Timeout.Duration)}
}
