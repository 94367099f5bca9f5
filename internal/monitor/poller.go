package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/giraffenet/webdesk/internal/logger"
	"github.com/rs/zerolog"
)

// Status is the connection state a poller shows in its window.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// PollerConfig configures a Poller.
type PollerConfig struct {
	WindowID   string
	Interval   time.Duration
	MaxBackoff time.Duration
	Timeout    time.Duration

	// Fetch performs one poll. A returned error counts as a connection failure.
	Fetch func(ctx context.Context) error
	// Exists reports whether the owning window is still open. The loop stops
	// on the first tick where it returns false.
	Exists func(windowID string) bool
	// Changed runs after every poll, successful or not.
	Changed func(windowID string)
}

// Poller runs Fetch on a fixed interval for the lifetime of one window and
// backs off exponentially while the endpoint is failing. It implements
// window.Extension.
type Poller struct {
	cfg PollerConfig
	log *zerolog.Logger

	mu       sync.RWMutex
	status   Status
	lastErr  error
	failures int
	lastOK   time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewPoller creates a stopped poller.
func NewPoller(cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxBackoff < cfg.Interval {
		cfg.MaxBackoff = cfg.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Poller{
		cfg:      cfg,
		log:      logger.WithWindow("monitor", cfg.WindowID),
		status:   StatusConnecting,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling goroutine. The first poll happens immediately.
func (p *Poller) Start() {
	go p.run()
}

// Cancel stops the poller. It is safe to call more than once and does not
// wait for an in-flight poll.
func (p *Poller) Cancel() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
		p.log.Debug().Msg("Poller cancelled")
	})
}

// Done is closed once the polling goroutine has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Status returns the connection state and the last error, if any.
func (p *Poller) Status() (Status, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status, p.lastErr
}

// Failures returns the number of consecutive failed polls.
func (p *Poller) Failures() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.failures
}

// LastSuccess returns the time of the last successful poll.
func (p *Poller) LastSuccess() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastOK
}

// NextDelay returns the wait before the next poll: the interval doubled
// per consecutive failure, capped at MaxBackoff.
func (p *Poller) NextDelay() time.Duration {
	return backoff(p.cfg.Interval, p.cfg.MaxBackoff, p.Failures())
}

func backoff(interval, ceiling time.Duration, failures int) time.Duration {
	d := interval
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	return d
}

func (p *Poller) run() {
	defer close(p.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-timer.C:
		}

		if p.cfg.Exists != nil && !p.cfg.Exists(p.cfg.WindowID) {
			p.log.Debug().Msg("Window gone, poller exiting")
			return
		}

		p.poll()

		select {
		case <-p.stopChan:
			return
		default:
		}
		if p.cfg.Changed != nil {
			p.cfg.Changed(p.cfg.WindowID)
		}
		timer.Reset(p.NextDelay())
	}
}

func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	defer cancel()

	// Abort the request if the window closes mid-flight.
	go func() {
		select {
		case <-p.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := p.cfg.Fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.failures++
		p.lastErr = err
		p.status = StatusDisconnected
		p.log.Warn().Err(err).Int("failures", p.failures).Msg("Poll failed")
		return
	}
	if p.status != StatusConnected {
		p.log.Info().Msg("Connected")
	}
	p.failures = 0
	p.lastErr = nil
	p.status = StatusConnected
	p.lastOK = time.Now()
}
