//go:build !linux

package cmd

import "go.uber.org/zap"

func withPerfCounters(logger *zap.Logger, fn func() error) error {
	logger.Warn("perf counters unavailable", zap.String("reason", "only supported on linux"))
	return fn()
}
