//go:build pprof

package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"

	_ "net/http/pprof" // register HTTP handlers
)

// Modes returns the supported profiling modes in sorted order.
var Modes = sync.OnceValue(
	func() []string {
		return slices.Sorted(maps.Keys(mode))
	},
)

var mode = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// option adds settings to the list passed to [profile.Start].
type option func([]func(*profile.Profile)) []func(*profile.Profile)

func start(m, path string, quiet bool) interface{ Stop() } {
	fn, ok := mode[m]
	if !ok {
		return ignore{}
	}

	settings := []func(*profile.Profile){fn}

	for _, opt := range []option{withPath(path), withQuiet(quiet)} {
		settings = opt(settings)
	}

	return profile.Start(settings...)
}

func withPath(p string) option {
	return func(s []func(*profile.Profile)) []func(*profile.Profile) {
		if p != "" {
			s = append(s, profile.ProfilePath(p))
		}

		return s
	}
}

func withQuiet(v bool) option {
	return func(s []func(*profile.Profile)) []func(*profile.Profile) {
		if v {
			s = append(s, profile.Quiet)
		}

		return s
	}
}
