package command

import (
	"github.com/odinkv/kvstored/internal/config"
	"github.com/odinkv/kvstored/internal/notifier"
	"github.com/odinkv/kvstored/internal/resource"
	"github.com/odinkv/kvstored/internal/store"
)

// StoreContext is the dependency set a StoreHandler may touch. It holds
// only the store itself: the store worker owns nothing else.
type StoreContext struct {
	Store *store.Store
}

// AttrsContext is the dependency set an AttrsHandler may touch: the
// mutable config, the pub/sub channel registry, the resource guard (for
// INFO and for applying CONFIG SET maxmemory), and a shutdown trigger.
type AttrsContext struct {
	Config   *config.Config
	Notifier *notifier.Notifier
	Guard    *resource.Guard
	Info     func() string
	Shutdown func()
}

// Session is the surface ClientHandlers (SUBSCRIBE, UNSUBSCRIBE, MONITOR,
// PING, QUIT) need from the calling session, implemented by
// internal/session.Client. Defined here, consumed by session, to avoid an
// import cycle between the two packages.
type Session interface {
	// Subscribe adds channel to the session's subscription set and the
	// shared registry, returning the session's new subscription count.
	Subscribe(channel string) int
	// Unsubscribe removes channel, returning the session's new
	// subscription count.
	Unsubscribe(channel string) int
	// UnsubscribeAll clears every subscription, returning the channels
	// that were unsubscribed from.
	UnsubscribeAll() []string
	// SubscriptionCount reports how many channels the session currently
	// subscribes to.
	SubscriptionCount() int
	// EnterMonitor transitions the session into monitor mode (terminal
	// state: spec.md §4.5).
	EnterMonitor()
	// Close transitions the session to Dead and tears down its
	// connection (QUIT).
	Close()
}
