package tuning

import (
	"runtime"
	"runtime/debug"
)

// Config holds the GC and soft memory-limit knobs applied at process start.
type Config struct {
	GCPercent   int
	MemoryLimit int64
}

// DefaultServerConfig sizes the soft memory limit off detected system
// memory, reserving headroom for outbound TCP/Mux buffers.
func DefaultServerConfig() Config {
	total := int64(getSystemTotalMemory())
	limit := total * 3 / 4
	if limit < 128*1024*1024 {
		limit = 128 * 1024 * 1024
	}
	return Config{
		GCPercent:   200,
		MemoryLimit: limit,
	}
}

// Apply installs cfg as the running process's GC policy.
func Apply(cfg Config) {
	runtime.GOMAXPROCS(runtime.NumCPU())
	if cfg.GCPercent > 0 {
		debug.SetGCPercent(cfg.GCPercent)
	}
	if cfg.MemoryLimit > 0 {
		debug.SetMemoryLimit(cfg.MemoryLimit)
	}
}
