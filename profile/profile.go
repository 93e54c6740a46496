package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`

// Profiler describes one profiling session.
type Profiler struct {
	Mode  string // One of [Modes]; empty disables profiling
	Path  string // Output directory; empty uses the working directory
	Quiet bool   // Suppress the messages of the profiling library
}

// Start starts profiling and returns a handle to stop it.
//
// If the build tag is unset, or Mode is empty or unknown, the handle does
// nothing. Both Start and Stop are always safe to call.
func (p Profiler) Start() interface{ Stop() } {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p.Mode, p.Path, p.Quiet)
}

type ignore struct{}

func (ignore) Stop() {}
