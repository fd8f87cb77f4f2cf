// Package sampling provides point-in-time resource usage sampling for the
// current process.
package sampling

import (
	"errors"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrUnavailable is returned when the OS process API could not be reached.
// Callers substitute a zero Snapshot and continue; a failed sample must never
// abort the monitored call.
var ErrUnavailable = errors.New("sampling: process stats unavailable")

// Snapshot holds a single resource reading.
type Snapshot struct {
	MemoryBytes uint64  // resident set size
	PeakBytes   uint64  // peak resident set size, zero where the platform does not report it
	CPUPercent  float64 // CPU usage since the previous sample, 0.0 .. 100.0 per core
}

// Sampler collects resource snapshots.
type Sampler interface {
	Sample() (Snapshot, error)
}

// ProcessSampler reads memory and CPU usage of the running process via the
// OS process API.
type ProcessSampler struct {
	proc *process.Process
}

// NewProcessSampler creates a sampler bound to the current process. If the
// process handle cannot be resolved, the sampler is still returned and every
// Sample call reports ErrUnavailable.
func NewProcessSampler() *ProcessSampler {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return &ProcessSampler{}
	}
	return &ProcessSampler{proc: proc}
}

// Sample collects one memory and CPU reading. CPU uses interval=0 (delta
// since the last call on this handle).
func (s *ProcessSampler) Sample() (Snapshot, error) {
	if s.proc == nil {
		return Snapshot{}, ErrUnavailable
	}
	memInfo, err := s.proc.MemoryInfo()
	if err != nil {
		return Snapshot{}, err
	}
	cpuPct, err := s.proc.Percent(0)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		MemoryBytes: memInfo.RSS,
		PeakBytes:   memInfo.HWM,
		CPUPercent:  cpuPct,
	}, nil
}

// RuntimeSampler reads Go runtime memory statistics instead of OS process
// stats. It needs no OS support and never fails, at the cost of seeing only
// the Go heap: MemoryBytes is HeapAlloc, PeakBytes approximates the heap
// high-water mark with HeapSys, and CPUPercent is always zero.
type RuntimeSampler struct{}

// NewRuntimeSampler creates a runtime-backed sampler.
func NewRuntimeSampler() *RuntimeSampler {
	return &RuntimeSampler{}
}

// Sample reads current runtime memory statistics.
func (s *RuntimeSampler) Sample() (Snapshot, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Snapshot{
		MemoryBytes: m.HeapAlloc,
		PeakBytes:   m.HeapSys,
	}, nil
}
