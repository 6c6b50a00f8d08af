package monitor

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/heartbeat-sense/heartbeat-go/store"
)

// deviceKey persists the simulated device identity across runs.
const deviceKey = "hb_device"

// Sampler produces simulated heart-rate readings. It is a random walk
// clamped to a realistic resting range, not a real sensor.
type Sampler struct {
	rng     *rand.Rand
	current float64
}

func NewSampler(seed int64) *Sampler {
	return &Sampler{
		rng:     rand.New(rand.NewSource(seed)),
		current: 75,
	}
}

// Next returns the next simulated reading, between 60 and 100 bpm.
func (s *Sampler) Next() int {
	s.current += s.rng.Float64()*10 - 5
	if s.current < 60 {
		s.current = 60
	}
	if s.current > 100 {
		s.current = 100
	}
	return int(math.Round(s.current))
}

// Result summarizes a completed measuring run.
type Result struct {
	AverageBPM int
	Samples    int
	Duration   time.Duration
	DeviceID   string
}

// DeviceID returns the persisted device identity, generating one on first
// use.
func DeviceID(kv store.Store) (string, error) {
	if id, ok := kv.Get(deviceKey); ok && id != "" {
		return id, nil
	}

	id := uuid.New().String()
	if err := kv.Set(deviceKey, id); err != nil {
		return "", errors.Wrap(err, "[monitor.DeviceID] Set")
	}
	return id, nil
}

// Run samples once per interval until ctx is cancelled, reporting each
// reading through onSample, and returns the rounded average over the run.
func Run(ctx context.Context, sampler *Sampler, deviceID string, interval time.Duration, onSample func(bpm int)) Result {
	started := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sum := 0
	count := 0
	for {
		select {
		case <-ctx.Done():
			result := Result{
				Samples:  count,
				Duration: time.Since(started),
				DeviceID: deviceID,
			}
			if count > 0 {
				result.AverageBPM = int(math.Round(float64(sum) / float64(count)))
			}
			return result
		case <-ticker.C:
			bpm := sampler.Next()
			sum += bpm
			count++
			if onSample != nil {
				onSample(bpm)
			}
		}
	}
}
