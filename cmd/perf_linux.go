//go:build linux

package cmd

import (
	perf "github.com/hodgesds/perf-utils"
	"go.uber.org/zap"
)

// withPerfCounters runs fn exactly once under hardware cycle and instruction
// counters. When a counter cannot be opened, typically for lack of perf_event
// permission, fn runs without it.
func withPerfCounters(logger *zap.Logger, fn func() error) (err error) {
	var (
		ran          bool
		instructions *perf.ProfileValue
		ierr         error
	)
	once := func() error {
		if !ran {
			ran = true
			err = fn()
		}
		return err
	}
	cycles, cerr := perf.CPUCycles(func() error {
		instructions, ierr = perf.CPUInstructions(once)
		return once()
	})
	if once() != nil {
		return err
	}
	if cerr != nil || ierr != nil {
		logger.Warn("perf counters unavailable", zap.NamedError("cycles", cerr), zap.NamedError("instructions", ierr))
		return nil
	}
	logger.Info("perf counters",
		zap.Uint64("instructions", instructions.Value),
		zap.Uint64("cycles", cycles.Value))
	return nil
}
