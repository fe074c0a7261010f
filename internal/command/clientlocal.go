package command

import (
	"github.com/odinkv/kvstored/internal/resp"
)

func (r *Registry) registerClientLocal() {
	r.add(&Command{Name: "SUBSCRIBE", Group: ClientLocalGroup, Arity: Arity{1, -1}, Client: cmdSubscribe})
	r.add(&Command{Name: "UNSUBSCRIBE", Group: ClientLocalGroup, Arity: Arity{0, -1}, Client: cmdUnsubscribe})
	r.add(&Command{Name: "MONITOR", Group: ClientLocalGroup, Arity: Arity{0, 0}, Client: cmdMonitor})
	r.add(&Command{Name: "PING", Group: ClientLocalGroup, Arity: Arity{0, 1}, Client: cmdPing})
	r.add(&Command{Name: "QUIT", Group: ClientLocalGroup, Arity: Arity{0, 0}, Client: cmdQuit})
}

// cmdSubscribe acks every channel argument with its own "subscribe"
// array reply (spec.md §4.6: one acknowledgement reply per channel),
// carrying the running subscription count after each one.
func cmdSubscribe(c Session, args []string) resp.Reply {
	acks := make(resp.Sequence, len(args))
	for i, channel := range args {
		count := c.Subscribe(channel)
		acks[i] = resp.NewArray(resp.NewBulkString("subscribe"), resp.NewBulkString(channel), resp.Integer(count))
	}
	return acks
}

func cmdUnsubscribe(c Session, args []string) resp.Reply {
	if len(args) == 0 {
		channels := c.UnsubscribeAll()
		if len(channels) == 0 {
			return resp.NewArray(resp.NewBulkString("unsubscribe"), resp.NullBulkString(), resp.Integer(0))
		}
		acks := make(resp.Sequence, len(channels))
		for i, channel := range channels {
			acks[i] = resp.NewArray(resp.NewBulkString("unsubscribe"), resp.NewBulkString(channel), resp.Integer(len(channels)-i-1))
		}
		return acks
	}
	acks := make(resp.Sequence, len(args))
	for i, channel := range args {
		count := c.Unsubscribe(channel)
		acks[i] = resp.NewArray(resp.NewBulkString("unsubscribe"), resp.NewBulkString(channel), resp.Integer(count))
	}
	return acks
}

func cmdMonitor(c Session, args []string) resp.Reply {
	c.EnterMonitor()
	return resp.SimpleString("OK")
}

func cmdPing(c Session, args []string) resp.Reply {
	if len(args) == 1 {
		return resp.NewBulkString(args[0])
	}
	return resp.SimpleString("PONG")
}

func cmdQuit(c Session, args []string) resp.Reply {
	c.Close()
	return resp.SimpleString("OK")
}
