// Package profile wraps [github.com/pkg/profile] behind the "pprof" build
// tag.
//
// Without the tag every [Profiler] is a no-op, so release binaries carry no
// profiling code:
//
//	defer profile.Profiler{Mode: "cpu", Path: dir}.Start().Stop()
//
// Build with `-tags pprof` to enable the modes listed by [Modes].
package profile
