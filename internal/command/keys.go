package command

import (
	"strings"

	"github.com/odinkv/kvstored/internal/resp"
)

func (r *Registry) registerKeys() {
	r.add(&Command{Name: "DEL", Group: StoreGroup, Arity: Arity{1, -1}, Store: cmdDel})
	r.add(&Command{Name: "EXISTS", Group: StoreGroup, Arity: Arity{1, -1}, Store: cmdExists})
	r.add(&Command{Name: "EXPIRE", Group: StoreGroup, Arity: Arity{2, 2}, Store: cmdExpire})
	r.add(&Command{Name: "PERSIST", Group: StoreGroup, Arity: Arity{1, 1}, Store: cmdPersist})
	r.add(&Command{Name: "TTL", Group: StoreGroup, Arity: Arity{1, 1}, Store: cmdTTL})
	r.add(&Command{Name: "TYPE", Group: StoreGroup, Arity: Arity{1, 1}, Store: cmdType})
	r.add(&Command{Name: "RENAME", Group: StoreGroup, Arity: Arity{2, 2}, Store: cmdRename})
	r.add(&Command{Name: "COPY", Group: StoreGroup, Arity: Arity{2, 3}, Store: cmdCopy})
	r.add(&Command{Name: "KEYS", Group: StoreGroup, Arity: Arity{1, 1}, Store: cmdKeys})
	r.add(&Command{Name: "TOUCH", Group: StoreGroup, Arity: Arity{1, -1}, Store: cmdTouch})
	r.add(&Command{Name: "CLEAN", Group: StoreGroup, Arity: Arity{0, 1}, Store: cmdClean})
}

func cmdDel(s *StoreContext, args []string) resp.Reply {
	removed := 0
	for _, key := range args {
		if _, ok := s.Store.Remove(key); ok {
			removed++
		}
	}
	return resp.Integer(removed)
}

func cmdExists(s *StoreContext, args []string) resp.Reply {
	count := 0
	for _, key := range args {
		if s.Store.Exists(key) {
			count++
		}
	}
	return resp.Integer(count)
}

func cmdExpire(s *StoreContext, args []string) resp.Reply {
	seconds, ok := parseInt(args[1])
	if !ok {
		return resp.ErrNotInteger
	}
	if !s.Store.Exists(args[0]) {
		return resp.Integer(0)
	}
	if seconds <= 0 {
		s.Store.Remove(args[0])
		return resp.Integer(1)
	}
	s.Store.SetTTL(args[0], seconds)
	return resp.Integer(1)
}

func cmdPersist(s *StoreContext, args []string) resp.Reply {
	if s.Store.Persist(args[0]) {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdTTL(s *StoreContext, args []string) resp.Reply {
	return resp.Integer(s.Store.TTL(args[0]))
}

func cmdType(s *StoreContext, args []string) resp.Reply {
	return resp.SimpleString(s.Store.TypeOf(args[0]).String())
}

func cmdRename(s *StoreContext, args []string) resp.Reply {
	if !s.Store.Rename(args[0], args[1]) {
		return resp.NewError("ERR", "no such key")
	}
	return resp.SimpleString("OK")
}

func cmdCopy(s *StoreContext, args []string) resp.Reply {
	replace := false
	if len(args) == 3 {
		if !strings.EqualFold(args[2], "REPLACE") {
			return resp.ErrProtocol
		}
		replace = true
	}
	copied, _ := s.Store.Copy(args[0], args[1], replace)
	if copied {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdKeys(s *StoreContext, args []string) resp.Reply {
	return resp.StringArray(s.Store.Keys(args[0])...)
}

func cmdTouch(s *StoreContext, args []string) resp.Reply {
	touched := 0
	for _, key := range args {
		if s.Store.Exists(key) {
			touched++
		}
	}
	return resp.Integer(touched)
}

func cmdClean(s *StoreContext, args []string) resp.Reply {
	n := 20
	if len(args) == 1 {
		parsed, ok := parseNatural(args[0])
		if !ok || parsed == 0 {
			return resp.ErrNotNatural
		}
		n = parsed
	}
	if s.Store.Len() == 0 {
		return resp.Integer(0)
	}
	return resp.Integer(s.Store.Clean(n))
}
