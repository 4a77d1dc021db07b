package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Keep-alive constants.
const (
	// DefaultPingInterval is the default interval between pings.
	DefaultPingInterval = 30 * time.Second

	// DefaultPongTimeout is the default time to wait for a pong.
	DefaultPongTimeout = 5 * time.Second

	// DefaultMaxMissedPongs is the number of missed pongs before the
	// connection is considered dead.
	DefaultMaxMissedPongs = 3
)

// KeepAliveConfig configures keep-alive behavior.
type KeepAliveConfig struct {
	// PingInterval is the interval between pings.
	PingInterval time.Duration

	// PongTimeout is the time to wait for the matching pong.
	PongTimeout time.Duration

	// MaxMissedPongs is the number of consecutive misses before timeout.
	MaxMissedPongs int
}

// DefaultKeepAliveConfig returns the default keep-alive configuration.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		PingInterval:   DefaultPingInterval,
		PongTimeout:    DefaultPongTimeout,
		MaxMissedPongs: DefaultMaxMissedPongs,
	}
}

// DetectionDelay is the longest a dead peer can go unnoticed:
// PingInterval * MaxMissedPongs + PongTimeout.
func (c KeepAliveConfig) DetectionDelay() time.Duration {
	return c.PingInterval*time.Duration(c.MaxMissedPongs) + c.PongTimeout
}

func (c KeepAliveConfig) withDefaults() KeepAliveConfig {
	if c.PingInterval == 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.PongTimeout == 0 {
		c.PongTimeout = DefaultPongTimeout
	}
	if c.MaxMissedPongs == 0 {
		c.MaxMissedPongs = DefaultMaxMissedPongs
	}
	return c
}

// KeepAlive sends sequenced pings and calls a timeout hook after too many
// consecutive pongs go missing.
type KeepAlive struct {
	config KeepAliveConfig

	sendPing       func(seq uint32) error
	onTimeout      func()
	onPongReceived func(seq uint32, latency time.Duration)

	sequence     atomic.Uint32
	missedPongs  int
	lastPingTime time.Time
	lastPongTime time.Time
	pendingPing  uint32
	hasPending   bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	pongCh  chan uint32
}

// NewKeepAlive creates a keep-alive that pings through sendPing.
func NewKeepAlive(config KeepAliveConfig, sendPing func(seq uint32) error, onTimeout func()) *KeepAlive {
	return &KeepAlive{
		config:    config.withDefaults(),
		sendPing:  sendPing,
		onTimeout: onTimeout,
		stopCh:    make(chan struct{}),
		pongCh:    make(chan uint32, 1),
	}
}

// NewConnKeepAlive creates a keep-alive bound to a connection's ping and
// pong control frames.
func NewConnKeepAlive(p Pinger, config KeepAliveConfig, onTimeout func()) *KeepAlive {
	ka := NewKeepAlive(config, p.Ping, onTimeout)
	p.OnPong(ka.PongReceived)
	return ka
}

// SetPongReceivedCallback sets a callback for matched pongs.
func (ka *KeepAlive) SetPongReceivedCallback(cb func(seq uint32, latency time.Duration)) {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	ka.onPongReceived = cb
}

// Start begins pinging. It is a no-op if already running.
func (ka *KeepAlive) Start(ctx context.Context) {
	ka.mu.Lock()
	if ka.running {
		ka.mu.Unlock()
		return
	}
	ka.running = true
	ka.stopCh = make(chan struct{})
	ka.doneCh = make(chan struct{})
	stopCh, doneCh := ka.stopCh, ka.doneCh
	ka.mu.Unlock()

	go ka.loop(ctx, stopCh, doneCh)
}

// Stop stops pinging and waits for the loop to exit. Safe to call from the
// timeout hook.
func (ka *KeepAlive) Stop() {
	ka.mu.Lock()
	if !ka.running {
		ka.mu.Unlock()
		return
	}
	ka.running = false
	close(ka.stopCh)
	doneCh := ka.doneCh
	ka.mu.Unlock()

	<-doneCh
}

// PongReceived records a pong carrying seq.
func (ka *KeepAlive) PongReceived(seq uint32) {
	select {
	case ka.pongCh <- seq:
	default:
	}
}

// IsRunning returns true while pings are being sent.
func (ka *KeepAlive) IsRunning() bool {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.running
}

// Stats returns current keep-alive statistics.
func (ka *KeepAlive) Stats() KeepAliveStats {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return KeepAliveStats{
		LastPingTime: ka.lastPingTime,
		LastPongTime: ka.lastPongTime,
		MissedPongs:  ka.missedPongs,
		CurrentSeq:   ka.sequence.Load(),
	}
}

// KeepAliveStats contains keep-alive statistics.
type KeepAliveStats struct {
	LastPingTime time.Time
	LastPongTime time.Time
	MissedPongs  int
	CurrentSeq   uint32
}

func (ka *KeepAlive) loop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(ka.config.PingInterval)
	defer ticker.Stop()

	ka.ping()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if ka.tick() {
				// A concurrent Stop owns shutdown and may be waiting on
				// doneCh; the hook must not run.
				ka.mu.Lock()
				stopped := !ka.running
				ka.running = false
				ka.mu.Unlock()
				if stopped {
					return
				}
				if ka.onTimeout != nil {
					ka.onTimeout()
				}
				return
			}
		case seq := <-ka.pongCh:
			ka.pong(seq)
		}
	}
}

func (ka *KeepAlive) ping() {
	seq := ka.sequence.Add(1)

	ka.mu.Lock()
	ka.lastPingTime = time.Now()
	ka.pendingPing = seq
	ka.hasPending = true
	ka.mu.Unlock()

	// A failed send is counted as a miss on the next tick.
	_ = ka.sendPing(seq)
}

// tick checks the outstanding ping and sends the next one. It returns true
// when the connection should be considered dead.
func (ka *KeepAlive) tick() bool {
	ka.mu.Lock()
	if ka.hasPending && time.Since(ka.lastPingTime) >= ka.config.PongTimeout {
		ka.missedPongs++
		ka.hasPending = false
		if ka.missedPongs >= ka.config.MaxMissedPongs {
			ka.mu.Unlock()
			return true
		}
	}
	ka.mu.Unlock()

	ka.ping()
	return false
}

func (ka *KeepAlive) pong(seq uint32) {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	now := time.Now()
	ka.lastPongTime = now

	// Pongs for older pings are late and ignored.
	if ka.hasPending && seq == ka.pendingPing {
		latency := now.Sub(ka.lastPingTime)
		ka.hasPending = false
		ka.missedPongs = 0

		if ka.onPongReceived != nil {
			go ka.onPongReceived(seq, latency)
		}
	}
}
