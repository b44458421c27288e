// internal/writer/writer.go
package writer

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/roastcraft/roastcraft-daq/internal/device"
)

// Sink is a named Writer inside a Fanout.
type Sink struct {
	Name   string
	Writer Writer
}

// Fanout delivers every snapshot to all sinks in order.
// A failing sink does not stop delivery to the others.
type Fanout struct {
	sinks []Sink
}

func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Add appends a sink. Not safe while Write is running.
func (f *Fanout) Add(name string, w Writer) {
	f.sinks = append(f.sinks, Sink{Name: name, Writer: w})
}

// Len is the number of sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) Write(ctx context.Context, snap device.Snapshot) error {
	var errs error
	for _, s := range f.sinks {
		if err := s.Writer.Write(ctx, snap); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("writer %s: %w", s.Name, err))
		}
	}
	return errs
}

// Log writes every snapshot to the logger at debug level.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.L()
	}
	return &Log{logger: logger.With(zap.String("sink", "log"))}
}

func (l *Log) Write(_ context.Context, snap device.Snapshot) error {
	channels, _ := device.AsChannels(snap)
	l.logger.Debug("reading", zap.Any("snapshot", snap), zap.Int("count", len(channels)))
	return nil
}
