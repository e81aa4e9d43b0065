// Package profiling captures and summarizes pprof CPU profiles recorded
// while benchmarking the simulator (sample_arg over large k/rho): Capture
// brackets a closure with runtime/pprof.StartCPUProfile, and
// Summarize/TopN parse the result with google/pprof's profile package as a
// parsing library rather than its driver/UI. Dev tooling only — never
// imported by production code.
package profiling

import (
	"io"
	"runtime/pprof"
	"sort"

	"github.com/google/pprof/profile"
)

// Capture records a CPU profile of fn into w via
// runtime/pprof.StartCPUProfile/StopCPUProfile. The result can be parsed
// with Summarize.
func Capture(w io.Writer, fn func()) error {
	if err := pprof.StartCPUProfile(w); err != nil {
		return err
	}
	fn()
	pprof.StopCPUProfile()
	return nil
}

// FunctionTotal is one function's aggregated sample value across a
// profile, in whatever unit the profile's first sample type reports.
type FunctionTotal struct {
	Name  string
	Value int64
}

// Summarize parses a gzip'd pprof profile from r and returns each
// function's total sample value (the profile's first sample index, e.g.
// cpu/nanoseconds), sorted by value descending.
func Summarize(r io.Reader) ([]FunctionTotal, error) {
	prof, err := profile.Parse(r)
	if err != nil {
		return nil, err
	}
	return summarizeProfile(prof), nil
}

func summarizeProfile(prof *profile.Profile) []FunctionTotal {
	totals := make(map[string]int64)
	for _, sample := range prof.Sample {
		if len(sample.Value) == 0 {
			continue
		}
		v := sample.Value[0]
		seen := make(map[string]bool)
		for _, loc := range sample.Location {
			for _, line := range loc.Line {
				if line.Function == nil {
					continue
				}
				name := line.Function.Name
				if seen[name] {
					continue
				}
				seen[name] = true
				totals[name] += v
			}
		}
	}

	out := make([]FunctionTotal, 0, len(totals))
	for name, v := range totals {
		out = append(out, FunctionTotal{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN returns at most n entries from totals, which must already be
// sorted descending by Value (as Summarize returns them).
func TopN(totals []FunctionTotal, n int) []FunctionTotal {
	if n >= len(totals) {
		return totals
	}
	return totals[:n]
}
