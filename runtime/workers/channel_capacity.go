package workers

import (
	"campus-assistant/observability"
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically records the length and capacity of the
// internal channels. Reading len and cap is non-blocking, so this won't
// interfere with the producers.
type ChannelCapacityWorker struct {
	log                  *slog.Logger
	channels             []NamedChannel
	monitoring           *observability.MonitoringManager
	metricInterval       time.Duration
	lowCapacityThreshold int
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel,
	monitoring *observability.MonitoringManager, metricInterval time.Duration, lowCapacityThreshold int) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:                  log,
		channels:             channels,
		monitoring:           monitoring,
		metricInterval:       metricInterval,
		lowCapacityThreshold: lowCapacityThreshold,
	}
}

func (w ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel sampling")
			return nil
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w ChannelCapacityWorker) sample() {
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		capacity, length := v.Cap(), v.Len()
		w.monitoring.RecordQueue(nc.Name, length, capacity)
		if capacity <= 0 {
			// unbuffered
			continue
		}
		capacityLeft := capacity - length
		if capacityLeft <= w.lowCapacityThreshold {
			w.log.Warn(fmt.Sprintf("Channel %s capacity left : %d", nc.Name, capacityLeft))
		}
	}
}
