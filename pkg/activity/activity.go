// Package activity summarises a recording: how many of each input kind it
// holds and how they spread over fixed time buckets.
package activity

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/offlinefirst/actionrec/pkg/recording"
)

// DefaultInterval is the bucket width used when none is given.
const DefaultInterval = time.Second

// Bucket aggregates events whose offset falls in [Start, End).
type Bucket struct {
	Start float64                `json:"start"`
	End   float64                `json:"end"`
	Count int                    `json:"count"`
	Kinds map[recording.Kind]int `json:"kinds"`
}

// Summary describes a recording at a glance.
type Summary struct {
	Events   int                    `json:"events"`
	Duration float64                `json:"duration"`
	Kinds    map[recording.Kind]int `json:"kinds"`
	Buckets  []Bucket               `json:"buckets"`
	// Keys counts presses per key name.
	Keys map[string]int `json:"keys,omitempty"`
	// LongestGap is the largest pause between consecutive events, in seconds.
	LongestGap float64 `json:"longest_gap"`
}

// Summarize groups events into buckets of the given width. Events must be in
// recording order.
func Summarize(events []recording.Event, interval time.Duration) (Summary, error) {
	if interval < 0 {
		return Summary{}, errors.New("bucket interval must not be negative")
	}
	if interval == 0 {
		interval = DefaultInterval
	}
	width := interval.Seconds()

	summary := Summary{
		Events: len(events),
		Kinds:  make(map[recording.Kind]int),
	}
	buckets := make(map[int]*Bucket)
	prev := 0.0
	for i, ev := range events {
		summary.Kinds[ev.Kind]++
		if ev.Kind == recording.KeyPress {
			if summary.Keys == nil {
				summary.Keys = make(map[string]int)
			}
			summary.Keys[ev.Key.String()]++
		}
		if i > 0 {
			if gap := ev.Elapsed - prev; gap > summary.LongestGap {
				summary.LongestGap = gap
			}
		}
		prev = ev.Elapsed
		if ev.Elapsed > summary.Duration {
			summary.Duration = ev.Elapsed
		}

		slot := int(math.Floor(ev.Elapsed / width))
		bucket := buckets[slot]
		if bucket == nil {
			bucket = &Bucket{
				Start: float64(slot) * width,
				End:   float64(slot+1) * width,
				Kinds: make(map[recording.Kind]int),
			}
			buckets[slot] = bucket
		}
		bucket.Count++
		bucket.Kinds[ev.Kind]++
	}

	summary.Buckets = make([]Bucket, 0, len(buckets))
	for _, bucket := range buckets {
		summary.Buckets = append(summary.Buckets, *bucket)
	}
	sort.Slice(summary.Buckets, func(i, j int) bool {
		return summary.Buckets[i].Start < summary.Buckets[j].Start
	})
	return summary, nil
}

// TopKeys returns up to n key names ordered by press count, ties by name.
func (s Summary) TopKeys(n int) []string {
	names := make([]string, 0, len(s.Keys))
	for name := range s.Keys {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.Keys[names[i]] != s.Keys[names[j]] {
			return s.Keys[names[i]] > s.Keys[names[j]]
		}
		return names[i] < names[j]
	})
	if n >= 0 && len(names) > n {
		names = names[:n]
	}
	return names
}
