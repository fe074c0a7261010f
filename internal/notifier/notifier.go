// Package notifier fans published messages out to subscribed sessions
// and mirrors executed commands to sessions in monitor mode, following
// the teacher's channel-to-subscribers reverse index.
package notifier

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/odinkv/kvstored/internal/metrics"
)

// Subscriber is the minimal surface a session exposes to the notifier.
// It is implemented by internal/session.Client; kept as an interface
// here so notifier never imports session (session imports notifier).
type Subscriber interface {
	// Deliver attempts a non-blocking send of a pub/sub message to the
	// subscriber's reply stream. It returns false if the subscriber's
	// channel was full or already closed.
	Deliver(channel, payload string) bool
}

// MonitorSink is the minimal surface a monitor-mode session exposes.
type MonitorSink interface {
	// DeliverMonitorLine attempts a non-blocking send of a mirrored
	// command line. Returns false if dropped.
	DeliverMonitorLine(line string) bool
}

// channelSet holds a copy-on-write snapshot of a channel's subscribers,
// adapted from the teacher's SubscriptionIndex: writes take the lock and
// swap an immutable slice, reads are a lock-free atomic load.
type channelSet struct {
	snapshot atomic.Value // []Subscriber
}

func (c *channelSet) get() []Subscriber {
	v := c.snapshot.Load()
	if v == nil {
		return nil
	}
	return v.([]Subscriber)
}

// Registry maps channel name to its current subscriber snapshot.
type Registry struct {
	mu   sync.RWMutex
	sets map[string]*channelSet
}

// NewRegistry builds an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[string]*channelSet)}
}

// Subscribe adds sub as a subscriber of channel. Idempotent.
func (r *Registry) Subscribe(channel string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[channel]
	if !ok {
		set = &channelSet{}
		r.sets[channel] = set
	}

	current := set.get()
	for _, existing := range current {
		if existing == sub {
			return
		}
	}
	next := make([]Subscriber, len(current)+1)
	copy(next, current)
	next[len(current)] = sub
	set.snapshot.Store(next)
}

// Unsubscribe removes sub from channel. A no-op if not subscribed.
func (r *Registry) Unsubscribe(channel string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[channel]
	if !ok {
		return
	}
	current := set.get()
	idx := -1
	for i, existing := range current {
		if existing == sub {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	next := make([]Subscriber, 0, len(current)-1)
	next = append(next, current[:idx]...)
	next = append(next, current[idx+1:]...)
	set.snapshot.Store(next)
	if len(next) == 0 {
		delete(r.sets, channel)
	}
}

// UnsubscribeAll removes sub from every channel it may belong to. Used
// when a session disconnects.
func (r *Registry) UnsubscribeAll(sub Subscriber) {
	r.mu.RLock()
	channels := make([]string, 0, len(r.sets))
	for ch := range r.sets {
		channels = append(channels, ch)
	}
	r.mu.RUnlock()

	for _, ch := range channels {
		r.Unsubscribe(ch, sub)
	}
}

// Subscribers returns the current subscriber snapshot for channel.
func (r *Registry) Subscribers(channel string) []Subscriber {
	r.mu.RLock()
	set, ok := r.sets[channel]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return set.get()
}

// Channels returns every channel name with at least one subscriber, the
// set PUBSUB CHANNELS reports on.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sets))
	for ch := range r.sets {
		out = append(out, ch)
	}
	return out
}

// NumSub returns the subscriber count for channel, for PUBSUB NUMSUB.
func (r *Registry) NumSub(channel string) int {
	return len(r.Subscribers(channel))
}

// Notifier owns the channel registry, the monitor mirror list, and the
// structured log sink, and fans deliveries out to each, dropping
// best-effort on a full or closed subscriber rather than blocking the
// command path.
type Notifier struct {
	registry *Registry

	mu       sync.RWMutex
	monitors []MonitorSink

	logger zerolog.Logger
}

// New constructs a Notifier backed by a fresh channel registry.
func New(logger zerolog.Logger) *Notifier {
	return &Notifier{
		registry: NewRegistry(),
		logger:   logger,
	}
}

// Registry exposes the channel registry for PUBSUB introspection and
// SUBSCRIBE/UNSUBSCRIBE bookkeeping.
func (n *Notifier) Registry() *Registry {
	return n.registry
}

// Publish fans payload out to every current subscriber of channel,
// returning the number of subscribers it was delivered to (which may be
// fewer than the subscriber count, if some drops occurred).
func (n *Notifier) Publish(channel, payload string) int {
	subs := n.registry.Subscribers(channel)
	delivered := 0
	for _, sub := range subs {
		if sub.Deliver(channel, payload) {
			delivered++
			metrics.PubSubDeliveries.Inc()
		} else {
			metrics.PubSubDropped.Inc()
			n.logger.Debug().Str("channel", channel).Msg("dropped pubsub delivery: subscriber channel full or closed")
		}
	}
	return delivered
}

// AddMonitor registers sink to receive mirrored command lines.
func (n *Notifier) AddMonitor(sink MonitorSink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.monitors = append(n.monitors, sink)
}

// RemoveMonitor unregisters sink, typically on disconnect.
func (n *Notifier) RemoveMonitor(sink MonitorSink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, m := range n.monitors {
		if m == sink {
			n.monitors = append(n.monitors[:i], n.monitors[i+1:]...)
			return
		}
	}
}

// MirrorCommand fans a formatted command line out to every monitor
// session, best-effort.
func (n *Notifier) MirrorCommand(line string) {
	n.mu.RLock()
	monitors := make([]MonitorSink, len(n.monitors))
	copy(monitors, n.monitors)
	n.mu.RUnlock()

	for _, m := range monitors {
		if !m.DeliverMonitorLine(line) {
			metrics.PubSubDropped.Inc()
		}
	}
}

// Log returns the structured logger the server and session packages log
// through, giving the notifier a single owner for the "log stream".
func (n *Notifier) Log() zerolog.Logger {
	return n.logger
}
