// Package resource samples process memory and enforces per-session
// command rate limits, following the teacher's resource guard and
// connection rate limiter.
package resource

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/time/rate"
)

// Guard periodically samples this process's resident memory and
// answers admission checks against a configured ceiling. A ceiling of
// 0 disables enforcement (sampling still runs, for INFO reporting).
type Guard struct {
	ceiling  int64
	interval time.Duration
	logger   zerolog.Logger

	proc *process.Process

	rss atomic.Int64

	stop chan struct{}
	once sync.Once
}

// NewGuard constructs a Guard for the current process.
func NewGuard(ceiling int64, interval time.Duration, logger zerolog.Logger) (*Guard, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Guard{
		ceiling:  ceiling,
		interval: interval,
		logger:   logger,
		proc:     proc,
		stop:     make(chan struct{}),
	}, nil
}

// Run samples memory on the configured interval until Stop is called.
// It is meant to be launched in its own goroutine.
func (g *Guard) Run() {
	g.sample()
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			g.sample()
		case <-g.stop:
			return
		}
	}
}

func (g *Guard) sample() {
	info, err := g.proc.MemoryInfo()
	if err != nil {
		g.logger.Warn().Err(err).Msg("failed to sample process memory")
		return
	}
	g.rss.Store(int64(info.RSS))
}

// Stop halts the sampling loop. Safe to call more than once.
func (g *Guard) Stop() {
	g.once.Do(func() { close(g.stop) })
}

// RSS returns the most recently sampled resident set size in bytes.
func (g *Guard) RSS() int64 {
	return g.rss.Load()
}

// Ceiling returns the configured memory ceiling in bytes, or 0 if
// enforcement is disabled.
func (g *Guard) Ceiling() int64 {
	return g.ceiling
}

// SetCeiling updates the enforced ceiling (used by CONFIG SET maxmemory).
func (g *Guard) SetCeiling(bytes int64) {
	g.ceiling = bytes
}

// Admit reports whether a new connection is admitted given the most
// recent memory sample. When the ceiling is 0, every connection is
// admitted.
func (g *Guard) Admit() bool {
	if g.ceiling <= 0 {
		return true
	}
	return g.rss.Load() < g.ceiling
}

// Limiter wraps a token-bucket rate limiter scoped to a single client
// session's command rate, grounded on the teacher's per-connection
// message rate limiter.
type Limiter struct {
	l *rate.Limiter
}

// NewLimiter builds a limiter that allows ratePerSec commands per
// second with the given burst allowance.
func NewLimiter(ratePerSec float64, burst int) *Limiter {
	if ratePerSec <= 0 {
		return &Limiter{l: rate.NewLimiter(rate.Inf, burst)}
	}
	return &Limiter{l: rate.NewLimiter(rate.Limit(ratePerSec), burst)}
}

// Allow reports whether a command may proceed now, consuming a token
// if so.
func (l *Limiter) Allow() bool {
	return l.l.Allow()
}
