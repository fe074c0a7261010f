// Package command defines the dispatch table: one entry per wire command,
// tagged with the capability group (spec.md §4.4) whose delegator worker
// must run it, grounded on the teacher's handler-map dispatch generalized
// from WebSocket message types to RESP commands.
package command

import (
	"strconv"
	"strings"

	"github.com/odinkv/kvstored/internal/resp"
)

// Group names the delegator worker a command must run on.
type Group int

const (
	// StoreGroup commands read or write the value store.
	StoreGroup Group = iota
	// AttributesGroup commands read or write server-wide mutable state:
	// config, the pub/sub channel registry, shutdown.
	AttributesGroup
	// ClientLocalGroup commands only ever touch the calling session's own
	// state and run synchronously on the session's goroutine.
	ClientLocalGroup
)

func (g Group) String() string {
	switch g {
	case StoreGroup:
		return "store"
	case AttributesGroup:
		return "attributes"
	case ClientLocalGroup:
		return "client-local"
	default:
		return "unknown"
	}
}

// Arity checks whether the argument count (excluding the command name
// itself) is acceptable. min is always enforced; max < 0 means unbounded.
type Arity struct {
	Min int
	Max int
}

func (a Arity) ok(n int) bool {
	if n < a.Min {
		return false
	}
	if a.Max >= 0 && n > a.Max {
		return false
	}
	return true
}

// Command describes one wire command's dispatch metadata. Exactly one of
// the Store/Attrs/Client handler fields is set, matching Group.
type Command struct {
	Name  string
	Group Group
	Arity Arity

	Store  StoreHandler
	Attrs  AttrsHandler
	Client ClientHandler
}

// StoreHandler runs on the store delegator's single worker.
type StoreHandler func(s *StoreContext, args []string) resp.Reply

// AttrsHandler runs on the attributes delegator's single worker.
type AttrsHandler func(a *AttrsContext, args []string) resp.Reply

// ClientHandler runs synchronously on the issuing session's own goroutine.
type ClientHandler func(c Session, args []string) resp.Reply

// Registry is a case-insensitive name-to-Command table.
type Registry struct {
	commands map[string]*Command
}

// NewRegistry assembles the full command table (spec.md §4.2–§4.4's
// command list, as grouped in the capability table).
func NewRegistry() *Registry {
	r := &Registry{commands: make(map[string]*Command)}
	r.registerStrings()
	r.registerKeys()
	r.registerLists()
	r.registerSets()
	r.registerServer()
	r.registerClientLocal()
	return r
}

func (r *Registry) add(c *Command) {
	r.commands[strings.ToUpper(c.Name)] = c
}

// Lookup resolves a command name case-insensitively.
func (r *Registry) Lookup(name string) (*Command, bool) {
	c, ok := r.commands[strings.ToUpper(name)]
	return c, ok
}

// CheckArity validates an argument count against cmd's declared arity,
// returning the standard wrong-arguments error when it fails.
func CheckArity(cmd *Command, args []string) (resp.Reply, bool) {
	if !cmd.Arity.ok(len(args)) {
		return resp.ErrWrongArgs(strings.ToLower(cmd.Name)), false
	}
	return nil, true
}

func parseInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseNatural(s string) (int, bool) {
	v, ok := parseInt(s)
	if !ok || v < 0 {
		return 0, false
	}
	return int(v), true
}
