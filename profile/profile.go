package profile

import "strings"

// Tag names the profiling build tag, flag group and output directory.
const Tag = "pprof"

// Profiler selects a profiling mode and the directory its output is written
// to.
type Profiler struct {
	Mode  string
	Path  string
	Quiet bool
}

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Start begins profiling. It returns a no-op [Stopper] when Mode is empty or
// unsupported, and always when built without the pprof tag.
func (p Profiler) Start() Stopper {
	mode := strings.ToLower(strings.TrimSpace(p.Mode))
	if mode == "" {
		return ignore{}
	}

	return start(mode, p.Path, p.Quiet)
}

// Supported reports whether mode is one of [Modes].
func Supported(mode string) bool {
	mode = strings.ToLower(strings.TrimSpace(mode))

	for _, m := range Modes() {
		if m == mode {
			return true
		}
	}

	return false
}

type ignore struct{}

func (ignore) Stop() {}
