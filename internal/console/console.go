// Package console implements the minimal HTTP collaborator from
// server_html/handler.rs: a single route that accepts a form-posted
// command line and runs it through the same dispatch path a TCP client
// uses, via a synthetic Executor-state session with no real socket.
package console

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/odinkv/kvstored/internal/command"
	"github.com/odinkv/kvstored/internal/notifier"
)

// synthSession stands in for session.Client when a command runs outside
// a real connection. SUBSCRIBE/MONITOR make no sense without a
// persistent socket to deliver to, so they are accepted but inert: the
// state machine transition happens, nothing is ever delivered, and the
// console reply still reports it.
type synthSession struct {
	subs    map[string]struct{}
	monitor bool
	closed  bool
}

func newSynthSession() *synthSession {
	return &synthSession{subs: make(map[string]struct{})}
}

func (s *synthSession) Subscribe(channel string) int {
	s.subs[channel] = struct{}{}
	return len(s.subs)
}

func (s *synthSession) Unsubscribe(channel string) int {
	delete(s.subs, channel)
	return len(s.subs)
}

func (s *synthSession) UnsubscribeAll() []string {
	out := make([]string, 0, len(s.subs))
	for ch := range s.subs {
		out = append(out, ch)
	}
	s.subs = make(map[string]struct{})
	return out
}

func (s *synthSession) SubscriptionCount() int { return len(s.subs) }
func (s *synthSession) EnterMonitor()          { s.monitor = true }
func (s *synthSession) Close()                 { s.closed = true }

// Console runs one-shot command lines through a Runner, grounded on
// CommandRedisPage::handle's "parse, dispatch, render" shape.
type Console struct {
	registry *command.Registry
	runner   *command.Runner
	notifier *notifier.Notifier
	logger   zerolog.Logger
}

// New builds a Console sharing the same registry, delegator workers and
// notifier as every TCP session.
func New(registry *command.Registry, runner *command.Runner, n *notifier.Notifier, logger zerolog.Logger) *Console {
	return &Console{registry: registry, runner: runner, notifier: n, logger: logger}
}

// Execute parses a single command line, dispatches it, and returns the
// reply in its wire encoding as plain text. Unlike a TCP session it never mirrors to
// MONITOR sinks on its own behalf and owns no persistent subscriptions
// past the call, since there is no connection to deliver to later.
func (c *Console) Execute(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}

	fields := strings.Fields(line)
	name := strings.ToUpper(fields[0])
	args := fields[1:]

	cmd, ok := c.registry.Lookup(name)
	if !ok {
		return "ERR unknown command '" + fields[0] + "'"
	}

	if reply, ok := command.CheckArity(cmd, args); !ok {
		return string(reply.Encode())
	}

	reply := c.runner.Run(context.Background(), cmd, args, newSynthSession())
	c.logger.Debug().Str("command", name).Msg("console command executed")
	return string(reply.Encode())
}

// Handler serves the form-posted console route: body is
// "command=<line>", with net/http's form decoding already turning "+"
// back into spaces the way the original's ad hoc string replace did.
func (c *Console) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		out := c.Execute(r.FormValue("command"))

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out))
	})
}
