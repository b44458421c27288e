// internal/poller/runner.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roastcraft/roastcraft-daq/internal/device"
)

// run is the tick loop of one session. First tick fires immediately.
// Reads never overlap: a read abandoned at its deadline keeps the next
// ticks skipped until it returns.
//
// Ticks missed while a tick is blocked are dropped, not replayed: after a
// slow read at most one tick fires at once, then the cadence resumes.
func (p *Poller) run(ctx context.Context, s *session) {
	defer close(s.done)

	logger := p.logger.With(zap.String("device", string(s.kind)))
	logger.Info("acquisition loop started", zap.Duration("interval", p.interval), zap.Duration("timeout", p.timeout))
	defer logger.Info("acquisition loop exited")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var pending <-chan Result

	for {
		pending = p.tick(ctx, s, pending, logger)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick performs exactly one cycle and returns the still-pending read, if any.
func (p *Poller) tick(ctx context.Context, s *session, pending <-chan Result, logger *zap.Logger) <-chan Result {
	if ctx.Err() != nil {
		return pending
	}

	if pending != nil {
		select {
		case <-pending:
			// abandoned read finally returned; its result is stale
		default:
			err := fmt.Errorf("%w: previous read still pending", device.ErrTimeout)
			logger.Warn("tick skipped", zap.Error(err))
			p.record(s, Result{At: time.Now(), Err: err})
			return pending
		}
	}

	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ch := make(chan Result, 1)
	go func() {
		snap, err := s.dev.Read(tctx)
		ch <- Result{At: time.Now(), Snapshot: snap, Err: err}
	}()

	var res Result
	select {
	case res = <-ch:
	case <-tctx.Done():
		if ctx.Err() != nil {
			return ch
		}
		logger.Warn("read timed out", zap.Duration("timeout", p.timeout))
		p.record(s, Result{At: time.Now(), Err: fmt.Errorf("%w: read exceeded %s", device.ErrTimeout, p.timeout)})
		return ch
	}

	if ctx.Err() != nil {
		return nil
	}

	if res.Err != nil {
		if errors.Is(res.Err, context.DeadlineExceeded) {
			res.Err = fmt.Errorf("%w: %w", device.ErrTimeout, res.Err)
			logger.Warn("read timed out", zap.Error(res.Err))
		} else {
			logger.Error("read failed, tick skipped", zap.Error(res.Err))
		}
		p.record(s, res)
		return nil
	}

	if err := p.writer.Write(ctx, res.Snapshot); err != nil {
		logger.Warn("publish failed", zap.Error(err))
	}
	p.record(s, res)
	return nil
}

// record folds a tick outcome into the status of s, if s is still the live session.
func (p *Poller) record(s *session, res Result) {
	p.mu.Lock()
	if p.sess != s {
		p.mu.Unlock()
		return
	}
	if res.Err != nil {
		p.tracker.Failure(res.Err, res.At)
	} else {
		p.tracker.Success(res.At)
	}
	snap := p.tracker.Snapshot()
	p.mu.Unlock()

	p.publishStatus(snap)
}
