package command

import (
	"strconv"
	"strings"

	"github.com/odinkv/kvstored/internal/resp"
	"github.com/odinkv/kvstored/internal/store"
)

func (r *Registry) registerServer() {
	r.add(&Command{Name: "CONFIG", Group: AttributesGroup, Arity: Arity{2, 3}, Attrs: cmdConfig})
	r.add(&Command{Name: "INFO", Group: AttributesGroup, Arity: Arity{0, 0}, Attrs: cmdInfo})
	r.add(&Command{Name: "SHUTDOWN", Group: AttributesGroup, Arity: Arity{0, 0}, Attrs: cmdShutdown})
	r.add(&Command{Name: "PUBLISH", Group: AttributesGroup, Arity: Arity{2, 2}, Attrs: cmdPublish})
	r.add(&Command{Name: "PUBSUB", Group: AttributesGroup, Arity: Arity{1, -1}, Attrs: cmdPubsub})
}

func cmdConfig(a *AttrsContext, args []string) resp.Reply {
	switch strings.ToUpper(args[0]) {
	case "GET":
		if len(args) != 2 {
			return resp.ErrWrongArgs("config|get")
		}
		value, ok := a.Config.Get(strings.ToLower(args[1]))
		if !ok {
			return resp.Array{}
		}
		return resp.StringArray(strings.ToLower(args[1]), value)
	case "SET":
		if len(args) != 3 {
			return resp.ErrWrongArgs("config|set")
		}
		name := strings.ToLower(args[1])
		if err := a.Config.Set(name, args[2]); err != nil {
			return resp.NewError("ERR", err.Error())
		}
		if name == "maxmemory" && a.Guard != nil {
			if bytes, ok := parseInt(args[2]); ok {
				a.Guard.SetCeiling(bytes)
			}
		}
		return resp.SimpleString("OK")
	default:
		return resp.NewError("ERR", "unknown CONFIG subcommand")
	}
}

func cmdInfo(a *AttrsContext, args []string) resp.Reply {
	return resp.NewBulkString(a.Info())
}

func cmdShutdown(a *AttrsContext, args []string) resp.Reply {
	a.Shutdown()
	return resp.SimpleString("OK")
}

func cmdPublish(a *AttrsContext, args []string) resp.Reply {
	delivered := a.Notifier.Publish(args[0], args[1])
	return resp.Integer(delivered)
}

func cmdPubsub(a *AttrsContext, args []string) resp.Reply {
	switch strings.ToUpper(args[0]) {
	case "CHANNELS":
		if len(args) > 2 {
			return resp.ErrWrongArgs("pubsub|channels")
		}
		pattern := "*"
		if len(args) == 2 {
			pattern = args[1]
		}
		var matched []string
		for _, ch := range a.Notifier.Registry().Channels() {
			if store.MatchGlob(pattern, ch) {
				matched = append(matched, ch)
			}
		}
		return resp.StringArray(matched...)
	case "NUMSUB":
		pairs := make([]string, 0, 2*len(args[1:]))
		for _, channel := range args[1:] {
			n := a.Notifier.Registry().NumSub(channel)
			pairs = append(pairs, channel, strconv.Itoa(n))
		}
		return resp.StringArray(pairs...)
	default:
		return resp.NewError("ERR", "unknown PUBSUB subcommand")
	}
}
