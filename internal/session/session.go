// Package session implements the per-connection client state machine:
// reader/writer goroutines sharing a bounded reply channel, subscription
// bookkeeping, and the Executor/Subscriber/Monitor/Dead status
// transitions, adapted from the teacher's Client/readPump/writePump pair.
package session

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/odinkv/kvstored/internal/command"
	"github.com/odinkv/kvstored/internal/metrics"
	"github.com/odinkv/kvstored/internal/notifier"
	"github.com/odinkv/kvstored/internal/resource"
	"github.com/odinkv/kvstored/internal/resp"
)

// Status is the client's position in the state machine from spec.md §4.5.
type Status int32

const (
	// Executor may run any registered command.
	Executor Status = iota
	// Subscriber may only run SUBSCRIBE/UNSUBSCRIBE/PING/QUIT, having
	// subscribed to at least one channel.
	Subscriber
	// Monitor is terminal: the session only ever receives mirrored
	// command lines until it disconnects.
	Monitor
	// Dead is terminal: the connection is closed.
	Dead
)

func (s Status) String() string {
	switch s {
	case Executor:
		return "executor"
	case Subscriber:
		return "subscriber"
	case Monitor:
		return "monitor"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// subscriptionSet is a thread-safe channel-name set, adapted from the
// teacher's SubscriptionSet.
type subscriptionSet struct {
	mu       sync.RWMutex
	channels map[string]struct{}
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{channels: make(map[string]struct{})}
}

func (s *subscriptionSet) add(ch string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[ch] = struct{}{}
	return len(s.channels)
}

func (s *subscriptionSet) remove(ch string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, ch)
	return len(s.channels)
}

func (s *subscriptionSet) clear() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.channels))
	for ch := range s.channels {
		out = append(out, ch)
	}
	s.channels = make(map[string]struct{})
	return out
}

func (s *subscriptionSet) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels)
}

// Deps bundles everything a Client needs to dispatch commands, shared
// across every session the server accepts.
type Deps struct {
	Registry *command.Registry
	Runner   *command.Runner
	Notifier *notifier.Notifier
	Guard    *resource.Guard
	Logger   zerolog.Logger

	ReplyChannelSize  int
	MaxCommandsPerSec float64
	CommandBurst      int
	IdleTimeout       time.Duration
}

// Client is one connected session: its own reader and writer goroutines,
// a bounded reply channel, and the status/subscription state the command
// handlers mutate.
type Client struct {
	id     uint64
	conn   net.Conn
	deps   *Deps
	logger zerolog.Logger

	status atomic.Int32

	subs    *subscriptionSet
	limiter *resource.Limiter

	reply     chan resp.Reply
	sendMu    sync.RWMutex // guards against sending on reply after Close closes it
	closeOnce sync.Once
	closed    chan struct{}
}

var nextID atomic.Uint64

// New constructs a session around an accepted connection. The caller is
// expected to invoke Serve, which blocks until the connection ends.
func New(conn net.Conn, deps *Deps) *Client {
	id := nextID.Add(1)
	c := &Client{
		id:      id,
		conn:    conn,
		deps:    deps,
		logger:  deps.Logger.With().Uint64("client_id", id).Str("remote", conn.RemoteAddr().String()).Logger(),
		subs:    newSubscriptionSet(),
		limiter: resource.NewLimiter(deps.MaxCommandsPerSec, deps.CommandBurst),
		reply:   make(chan resp.Reply, deps.ReplyChannelSize),
		closed:  make(chan struct{}),
	}
	c.status.Store(int32(Executor))
	return c
}

// ID returns the session's unique identifier.
func (c *Client) ID() uint64 { return c.id }

// Status returns the session's current state-machine position.
func (c *Client) Status() Status {
	return Status(c.status.Load())
}

// Serve runs the reader and writer loops until the connection closes,
// splitting them into two goroutines sharing c.reply so that pub/sub and
// monitor deliveries are never blocked behind a slow client waiting on a
// long-running command reply, and vice versa.
func (c *Client) Serve() {
	metrics.ConnectionsTotal.Inc()
	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writeLoop()
	}()
	go func() {
		defer wg.Done()
		c.readLoop()
	}()
	wg.Wait()

	c.deps.Notifier.Registry().UnsubscribeAll(c)
	c.deps.Notifier.RemoveMonitor(c)
	c.logger.Debug().Msg("session closed")
}

func (c *Client) readLoop() {
	defer c.Close()

	if c.deps.IdleTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.deps.IdleTimeout))
	}

	dec := resp.NewDecoder(bufio.NewReader(c.conn))
	for {
		select {
		case <-c.closed:
			return
		default:
		}

		args, err := dec.Decode()
		if err != nil {
			c.logger.Debug().Err(err).Msg("connection read ended")
			return
		}
		if c.deps.IdleTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.deps.IdleTimeout))
		}
		if len(args) == 0 {
			continue
		}

		c.handle(args)
	}
}

func (c *Client) writeLoop() {
	writer := bufio.NewWriter(c.conn)
	for {
		select {
		case r, ok := <-c.reply:
			if !ok {
				return
			}
			buf := r.Encode()
			if _, err := writer.Write(buf); err != nil {
				c.logger.Debug().Err(err).Msg("write failed")
				c.Close()
				return
			}
			metrics.BytesWritten.Add(float64(len(buf)))
			if len(c.reply) == 0 {
				if err := writer.Flush(); err != nil {
					c.logger.Debug().Err(err).Msg("flush failed")
					c.Close()
					return
				}
			}
		case <-c.closed:
			_ = writer.Flush()
			return
		}
	}
}

// send delivers a reply to this session's writer, non-blocking: a full
// channel indicates a slow or stuck client and the send is dropped
// rather than stalling the delegator worker that produced it.
func (c *Client) send(r resp.Reply) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.Status() == Dead {
		return false
	}
	select {
	case c.reply <- r:
		return true
	default:
		return false
	}
}

func (c *Client) handle(args []string) {
	name := strings.ToUpper(args[0])
	cmdArgs := args[1:]

	cmd, ok := c.deps.Registry.Lookup(name)
	if !ok {
		c.send(resp.NewError("ERR", "unknown command '"+args[0]+"'"))
		metrics.CommandsTotal.WithLabelValues(strings.ToLower(args[0]), "unknown").Inc()
		return
	}

	if !c.authorized(cmd) {
		c.send(resp.ErrNotAuthorized(strings.ToLower(name)))
		metrics.CommandsTotal.WithLabelValues(strings.ToLower(name), "unauthorized").Inc()
		return
	}

	if reply, ok := command.CheckArity(cmd, cmdArgs); !ok {
		c.send(reply)
		metrics.CommandsTotal.WithLabelValues(strings.ToLower(name), "arity_error").Inc()
		return
	}

	if !c.limiter.Allow() {
		c.send(resp.NewError("ERR", "command rate limit exceeded"))
		metrics.CommandsTotal.WithLabelValues(strings.ToLower(name), "rate_limited").Inc()
		return
	}

	reply := c.dispatch(cmd, cmdArgs)
	c.send(reply)
	c.mirror(name, cmdArgs)
	metrics.CommandsTotal.WithLabelValues(strings.ToLower(name), "ok").Inc()
}

// authorized enforces spec.md §4.5: a Subscriber may only run
// client-local commands other than MONITOR; a Monitor may run none (it
// only observes).
func (c *Client) authorized(cmd *command.Command) bool {
	switch c.Status() {
	case Monitor:
		return false
	case Subscriber:
		return cmd.Group == command.ClientLocalGroup && cmd.Name != "MONITOR"
	default:
		return true
	}
}

func (c *Client) dispatch(cmd *command.Command, args []string) resp.Reply {
	return c.deps.Runner.Run(context.Background(), cmd, args, c)
}

// mirror fans the just-executed command line out to any MONITOR
// sessions, skipping the command itself when this session IS the
// monitor sink (spec.md §4.5: a monitor never sees its own MONITOR call
// echoed, since by definition it ran before entering monitor mode).
func (c *Client) mirror(name string, args []string) {
	if name == "MONITOR" {
		return
	}
	line := name
	if len(args) > 0 {
		line = name + " " + strings.Join(args, " ")
	}
	c.deps.Notifier.MirrorCommand(line)
}

// Deliver implements notifier.Subscriber: a non-blocking send of a
// pub/sub message formatted as a three-element array reply.
func (c *Client) Deliver(channel, payload string) bool {
	return c.send(resp.NewArray(resp.NewBulkString("message"), resp.NewBulkString(channel), resp.NewBulkString(payload)))
}

// DeliverMonitorLine implements notifier.MonitorSink.
func (c *Client) DeliverMonitorLine(line string) bool {
	return c.send(resp.SimpleString(line))
}

// Subscribe implements command.Session.
func (c *Client) Subscribe(channel string) int {
	c.deps.Notifier.Registry().Subscribe(channel, c)
	count := c.subs.add(channel)
	c.status.Store(int32(Subscriber))
	return count
}

// Unsubscribe implements command.Session.
func (c *Client) Unsubscribe(channel string) int {
	c.deps.Notifier.Registry().Unsubscribe(channel, c)
	count := c.subs.remove(channel)
	if count == 0 {
		c.status.Store(int32(Executor))
	}
	return count
}

// UnsubscribeAll implements command.Session.
func (c *Client) UnsubscribeAll() []string {
	channels := c.subs.clear()
	for _, ch := range channels {
		c.deps.Notifier.Registry().Unsubscribe(ch, c)
	}
	c.status.Store(int32(Executor))
	return channels
}

// SubscriptionCount implements command.Session.
func (c *Client) SubscriptionCount() int {
	return c.subs.count()
}

// EnterMonitor implements command.Session.
func (c *Client) EnterMonitor() {
	c.status.Store(int32(Monitor))
	c.deps.Notifier.AddMonitor(c)
}

// Close implements command.Session: transitions to Dead and tears the
// connection down. Safe to call more than once and from either loop.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.sendMu.Lock()
		c.status.Store(int32(Dead))
		c.sendMu.Unlock()
		close(c.closed)
		close(c.reply)
		_ = c.conn.Close()
	})
}
