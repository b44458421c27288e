// internal/poller/poller.go
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/roastcraft/roastcraft-daq/internal/config"
	"github.com/roastcraft/roastcraft-daq/internal/device"
	"github.com/roastcraft/roastcraft-daq/internal/status"
	"github.com/roastcraft/roastcraft-daq/internal/writer"
)

const (
	// DefaultInterval is the tick period. The first tick fires immediately.
	DefaultInterval = 2 * time.Second
	// DefaultTimeout bounds one Read.
	DefaultTimeout = 10 * time.Second
)

// Poller supervises at most one acquisition session.
// Start and Stop are safe to call from any goroutine.
type Poller struct {
	cfg     *config.Config
	loadErr error

	interval time.Duration
	timeout  time.Duration

	factory      Factory
	writer       writer.Writer
	notifier     Notifier
	statusWriter status.Writer
	logger       *zap.Logger

	mu      sync.Mutex
	sess    *session
	tracker *status.Tracker

	statusMu sync.Mutex
}

// session is one Start..Stop lifetime. dev is nil while the device is being built.
type session struct {
	cancel context.CancelFunc
	dev    device.Device
	kind   Kind
	done   chan struct{}
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option { return func(p *Poller) { p.interval = d } }
func WithTimeout(d time.Duration) Option  { return func(p *Poller) { p.timeout = d } }
func WithFactory(f Factory) Option        { return func(p *Poller) { p.factory = f } }
func WithWriter(w writer.Writer) Option   { return func(p *Poller) { p.writer = w } }
func WithNotifier(n Notifier) Option      { return func(p *Poller) { p.notifier = n } }
func WithLogger(l *zap.Logger) Option     { return func(p *Poller) { p.logger = l } }

func WithStatusWriter(sw status.Writer) Option {
	return func(p *Poller) { p.statusWriter = sw }
}

// WithLoadError records why no configuration is available.
// Every Start then reports it as the cause.
func WithLoadError(err error) Option {
	return func(p *Poller) { p.loadErr = err }
}

// New creates an idle supervisor over cfg. cfg is never mutated;
// every session works on its own clone.
func New(cfg *config.Config, opts ...Option) *Poller {
	p := &Poller{
		cfg:      cfg,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		tracker:  status.NewTracker(),
	}
	for _, o := range opts {
		o(p)
	}

	if p.logger == nil {
		p.logger = zap.L()
	}
	p.logger = p.logger.With(zap.String("component", "poller"))

	if p.writer == nil {
		p.writer = writer.Discard
	}
	if p.factory == nil {
		p.factory = DefaultFactory(BuildOptions{Notifier: p.notifier, Logger: p.logger})
	}
	return p
}

// Config returns the configuration sessions are built from.
func (p *Poller) Config() *config.Config {
	return p.cfg
}

// Start builds the device and launches the tick loop.
// While a session is running or starting this is a no-op.
// A construction failure is returned and notified; the poller stays idle.
func (p *Poller) Start() error {
	p.mu.Lock()
	if p.sess != nil {
		state := status.StateRunning
		if p.sess.dev == nil {
			state = status.StateStarting
		}
		p.mu.Unlock()
		p.logger.Warn("acquisition already active, start ignored", zap.String("state", string(state)))
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{cancel: cancel, done: make(chan struct{})}
	p.sess = s
	p.tracker.Starting()
	snap := p.tracker.Snapshot()
	cfg := p.cfg.Clone()
	p.mu.Unlock()

	p.publishStatus(snap)

	// device I/O happens outside the lock
	dev, kind, err := p.factory(cfg)
	if err != nil && cfg == nil && p.loadErr != nil {
		err = fmt.Errorf("%w (%w)", err, p.loadErr)
	}

	p.mu.Lock()
	if err != nil && p.sess != s {
		// stopped while starting; Stop already published the idle status
		p.mu.Unlock()
		cancel()
		p.logger.Info("device construction failed after stop", zap.String("device", string(kind)), zap.Error(err))
		return err
	}
	if err != nil {
		p.sess = nil
		p.tracker.StartFailed(err)
		snap = p.tracker.Snapshot()
		p.mu.Unlock()

		cancel()
		p.logger.Error("device construction failed", zap.String("device", string(kind)), zap.Error(err))
		p.notify(fmt.Sprintf("failed to start acquisition: %v", err))
		p.publishStatus(snap)
		return err
	}

	if p.sess != s {
		// stopped while starting
		p.mu.Unlock()
		if cerr := dev.Close(); cerr != nil {
			p.logger.Warn("device close failed", zap.Error(cerr))
		}
		p.logger.Info("acquisition stopped before the device was ready", zap.String("device", string(kind)))
		return nil
	}

	s.dev = dev
	s.kind = kind
	p.tracker.Running(string(kind))
	snap = p.tracker.Snapshot()
	p.mu.Unlock()

	p.publishStatus(snap)

	go p.run(ctx, s)
	return nil
}

// Stop cancels the loop and closes the device without waiting for an in-flight
// read. While idle this is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	s := p.sess
	if s == nil {
		p.mu.Unlock()
		p.logger.Warn("acquisition not running, stop ignored")
		return
	}
	p.sess = nil
	dev := s.dev
	p.tracker.Stopped()
	snap := p.tracker.Snapshot()
	p.mu.Unlock()

	s.cancel()
	if dev != nil {
		// unblocks a read stuck on the line
		if err := dev.Close(); err != nil {
			p.logger.Warn("device close failed", zap.Error(err))
		}
	}

	p.publishStatus(snap)
	p.logger.Info("acquisition stopped", zap.String("device", string(s.kind)))
}

// Running reports whether a session is active (starting or running).
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess != nil
}

// Status returns the current session view.
func (p *Poller) Status() status.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker.Snapshot()
}

func (p *Poller) notify(msg string) {
	if p.notifier != nil {
		p.notifier.Notify(msg)
	}
}

func (p *Poller) publishStatus(s status.Snapshot) {
	if p.statusWriter == nil {
		return
	}

	p.statusMu.Lock()
	defer p.statusMu.Unlock()

	if err := p.statusWriter.WriteStatus(s); err != nil {
		p.logger.Warn("status write failed", zap.Error(err))
	}
}
