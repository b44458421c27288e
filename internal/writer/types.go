// internal/writer/types.go
package writer

import (
	"context"

	"github.com/roastcraft/roastcraft-daq/internal/device"
)

// Writer publishes one snapshot to a consumer.
// A nil snapshot is a valid, empty reading and is published as such.
type Writer interface {
	Write(ctx context.Context, snap device.Snapshot) error
}

// Func adapts a function to Writer.
type Func func(ctx context.Context, snap device.Snapshot) error

func (f Func) Write(ctx context.Context, snap device.Snapshot) error { return f(ctx, snap) }

// Discard drops every snapshot.
var Discard Writer = Func(func(context.Context, device.Snapshot) error { return nil })
