package measure

import (
	"math"
	"sort"
	"time"
)

// SlotWindow is the bucketing window of the activity log.
const SlotWindow = 30 * time.Minute

// NoActivityLabel is shown for slots whose representative sample has no
// server-side activity linkage.
const NoActivityLabel = "no activity assigned"

// Slot is one half-hour bucket of the activity log. Slots are derived fresh
// on every aggregation call and never mutated in place.
type Slot struct {
	SlotStart      time.Time
	AverageBPM     int
	SampleCount    int
	Representative Raw
	ActivityLabel  string
}

// WeekdayStat is one entry of the weekly rollup.
type WeekdayStat struct {
	Weekday     time.Weekday
	Label       string
	AverageBPM  int
	SampleCount int
}

type sample struct {
	raw Raw
	bpm float64
	at  time.Time
}

// normalize drops records with a missing or unparseable timestamp or value
// and returns the remainder sorted most-recent-first. Averages round
// half-away-from-zero throughout this package.
func normalize(measurements []Raw) []sample {
	samples := make([]sample, 0, len(measurements))
	for _, m := range measurements {
		at, ok := m.Time()
		if !ok {
			continue
		}
		bpm, ok := m.Value.Float()
		if !ok {
			continue
		}
		samples = append(samples, sample{raw: m, bpm: bpm, at: at})
	}
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].at.After(samples[j].at)
	})
	return samples
}

// ComputeSlots buckets the measurement set into half-hour activity slots.
// When day is non-nil only samples within that UTC calendar day are
// considered. Each slot's representative is the first sample of the
// most-recent-first order falling inside the bucket window, and its
// activityId resolves the label against the supplied activities. Output is
// ordered by bucket start, most recent first.
func ComputeSlots(measurements []Raw, activities []Activity, day *time.Time) []Slot {
	samples := normalize(measurements)

	if day != nil {
		dayStart := day.UTC().Truncate(24 * time.Hour)
		dayEnd := dayStart.Add(24 * time.Hour)
		filtered := samples[:0]
		for _, s := range samples {
			at := s.at.UTC()
			if !at.Before(dayStart) && at.Before(dayEnd) {
				filtered = append(filtered, s)
			}
		}
		samples = filtered
	}

	titles := make(map[int]string, len(activities))
	for _, a := range activities {
		titles[a.ID] = a.Title
	}

	type bucket struct {
		sum            float64
		count          int
		representative Raw
	}

	starts := make([]time.Time, 0)
	buckets := make(map[time.Time]*bucket)
	for _, s := range samples {
		start := s.at.UTC().Truncate(SlotWindow)
		b, ok := buckets[start]
		if !ok {
			// Samples arrive most-recent-first, so the first sample seen
			// for a bucket is its representative.
			b = &bucket{representative: s.raw}
			buckets[start] = b
			starts = append(starts, start)
		}
		b.sum += s.bpm
		b.count++
	}

	sort.Slice(starts, func(i, j int) bool {
		return starts[i].After(starts[j])
	})

	slots := make([]Slot, 0, len(starts))
	for _, start := range starts {
		b := buckets[start]
		label := NoActivityLabel
		if b.representative.ActivityID != nil {
			if title, ok := titles[*b.representative.ActivityID]; ok {
				label = title
			}
		}
		slots = append(slots, Slot{
			SlotStart:      start,
			AverageBPM:     roundAverage(b.sum, b.count),
			SampleCount:    b.count,
			Representative: b.representative,
			ActivityLabel:  label,
		})
	}
	return slots
}

// ComputeWeeklyRollup aggregates all supplied samples by calendar
// day-of-week (not a specific week instance) and returns one entry per
// weekday in fixed Sunday-to-Saturday order. Days without samples carry a
// zero average.
func ComputeWeeklyRollup(measurements []Raw) []WeekdayStat {
	samples := normalize(measurements)

	sums := [7]float64{}
	counts := [7]int{}
	for _, s := range samples {
		wd := s.at.UTC().Weekday()
		sums[wd] += s.bpm
		counts[wd]++
	}

	stats := make([]WeekdayStat, 0, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		stat := WeekdayStat{
			Weekday:     wd,
			Label:       wd.String()[:3],
			SampleCount: counts[wd],
		}
		if counts[wd] > 0 {
			stat.AverageBPM = roundAverage(sums[wd], counts[wd])
		}
		stats = append(stats, stat)
	}
	return stats
}

// roundAverage rounds half away from zero, matching display expectations.
func roundAverage(sum float64, count int) int {
	return int(math.Round(sum / float64(count)))
}
