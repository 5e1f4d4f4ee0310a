package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

const (
	smallServerMemLimit = 1 * 1024 * 1024 * 1024
	largeServerMemLimit = 4 * 1024 * 1024 * 1024
)

// InitRuntime sets a soft memory limit sized to the host unless GOMEMLIMIT is set,
// then logs the effective runtime settings.
func InitRuntime() {
	if os.Getenv("GOMEMLIMIT") == "" {
		limit := int64(smallServerMemLimit)
		if runtime.NumCPU() > 4 {
			limit = largeServerMemLimit
		}
		debug.SetMemoryLimit(limit)
		log.Info().
			Float64("GOMEMLIMIT_GB", float64(limit)/1024/1024/1024).
			Msg("[runtime] Set memory limit")
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Uint64("heap_alloc_mb", memStats.HeapAlloc/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] Current runtime settings")
}
