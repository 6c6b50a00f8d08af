package monitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heartbeat-sense/heartbeat-go/monitor"
	"github.com/heartbeat-sense/heartbeat-go/store"
)

func TestSamplerStaysInRange(t *testing.T) {
	s := monitor.NewSampler(1)
	for i := 0; i < 1000; i++ {
		bpm := s.Next()
		require.GreaterOrEqual(t, bpm, 60)
		require.LessOrEqual(t, bpm, 100)
	}
}

func TestDeviceID(t *testing.T) {
	kv := store.NewMemoryStore()

	id, err := monitor.DeviceID(kv)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	again, err := monitor.DeviceID(kv)
	require.NoError(t, err)
	require.Equal(t, id, again)
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var seen []int
	done := make(chan monitor.Result, 1)
	go func() {
		done <- monitor.Run(ctx, monitor.NewSampler(7), "dev-1", time.Millisecond, func(bpm int) {
			seen = append(seen, bpm)
			if len(seen) == 5 {
				cancel()
			}
		})
	}()

	result := <-done
	require.Equal(t, "dev-1", result.DeviceID)
	require.GreaterOrEqual(t, result.Samples, 5)
	require.GreaterOrEqual(t, result.AverageBPM, 60)
	require.LessOrEqual(t, result.AverageBPM, 100)
}
