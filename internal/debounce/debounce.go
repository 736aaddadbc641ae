// Package debounce confirms keyword sets that repeat for a number of
// consecutive notifications.
package debounce

import "kwhmi/agent/internal/keyword"

// Observation is the result of feeding one set to the filter.
type Observation struct {
	Set       keyword.Set
	Count     int  // length of the current identical run, 1 for a new value
	Confirmed bool // true only on the notification that reaches the threshold
	Unknown   bool // the set carries UNKNOWN and was judged against the reset threshold
}

// Filter tracks the previous set and its run length. It is not safe for
// concurrent use; the resolver loop owns it.
type Filter struct {
	threshold        int
	unknownThreshold int

	last  keyword.Set
	count int
}

// New returns a filter. Thresholds below 1 are raised to 1.
func New(threshold, unknownThreshold int) *Filter {
	if threshold < 1 {
		threshold = 1
	}
	if unknownThreshold < 1 {
		unknownThreshold = 1
	}
	return &Filter{threshold: threshold, unknownThreshold: unknownThreshold}
}

// Observe records s and reports the run length and whether this
// notification confirms it.
func (f *Filter) Observe(s keyword.Set) (int, bool) {
	o := f.ObserveDetail(s)
	return o.Count, o.Confirmed
}

// ObserveDetail is Observe with the UNKNOWN classification attached.
func (f *Filter) ObserveDetail(s keyword.Set) Observation {
	if f.count > 0 && s == f.last {
		if f.count < maxCount {
			f.count++
		}
	} else {
		f.count = 1
	}
	f.last = s

	unknown := s.Has(keyword.Unknown)
	th := f.threshold
	if unknown {
		th = f.unknownThreshold
	}
	return Observation{Set: s, Count: f.count, Confirmed: f.count == th, Unknown: unknown}
}

// Reset forgets the previous set.
func (f *Filter) Reset() {
	f.last = 0
	f.count = 0
}

// Thresholds returns the keyword and unknown thresholds in use.
func (f *Filter) Thresholds() (int, int) { return f.threshold, f.unknownThreshold }

// Saturating keeps a held value from wrapping back onto the threshold.
const maxCount = int(^uint(0) >> 1)
