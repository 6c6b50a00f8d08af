package measure

import (
	"sort"
	"time"
)

// OverviewStats summarizes the whole cached measurement window for the
// overview screen.
type OverviewStats struct {
	LatestBPM   int
	LatestAt    time.Time
	AverageBPM  int
	SampleCount int
	Days        []string // UTC calendar days with samples, most recent first
}

// DayStat summarizes a single UTC calendar day.
type DayStat struct {
	AverageBPM    int
	SampleCount   int
	ActiveMinutes int
}

// Overview computes the headline numbers of the overview screen from the
// raw measurement window.
func Overview(measurements []Raw) OverviewStats {
	samples := normalize(measurements)

	stats := OverviewStats{SampleCount: len(samples)}
	if len(samples) == 0 {
		return stats
	}

	// normalize sorts most-recent-first.
	latest := samples[0]
	stats.LatestBPM = int(latest.bpm)
	stats.LatestAt = latest.at

	sum := 0.0
	seen := make(map[string]struct{})
	for _, s := range samples {
		sum += s.bpm
		day := s.at.UTC().Format("2006-01-02")
		if _, ok := seen[day]; !ok {
			seen[day] = struct{}{}
			stats.Days = append(stats.Days, day)
		}
	}
	stats.AverageBPM = roundAverage(sum, len(samples))

	sort.Sort(sort.Reverse(sort.StringSlice(stats.Days)))
	return stats
}

// DayStats summarizes the samples of one UTC calendar day. Active minutes
// follow the source app's heuristic of half a minute per sample.
func DayStats(measurements []Raw, day time.Time) DayStat {
	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	sum := 0.0
	count := 0
	for _, s := range normalize(measurements) {
		at := s.at.UTC()
		if at.Before(dayStart) || !at.Before(dayEnd) {
			continue
		}
		sum += s.bpm
		count++
	}

	stat := DayStat{SampleCount: count, ActiveMinutes: roundAverage(float64(count), 2)}
	if count > 0 {
		stat.AverageBPM = roundAverage(sum, count)
	}
	return stat
}
