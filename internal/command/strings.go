package command

import (
	"math"
	"strconv"
	"strings"

	"github.com/odinkv/kvstored/internal/resp"
	"github.com/odinkv/kvstored/internal/store"
)

func (r *Registry) registerStrings() {
	r.add(&Command{Name: "APPEND", Group: StoreGroup, Arity: Arity{2, 2}, Store: cmdAppend})
	r.add(&Command{Name: "SET", Group: StoreGroup, Arity: Arity{2, 4}, Store: cmdSet})
	r.add(&Command{Name: "GET", Group: StoreGroup, Arity: Arity{1, 1}, Store: cmdGet})
	r.add(&Command{Name: "GETSET", Group: StoreGroup, Arity: Arity{2, 2}, Store: cmdGetSet})
	r.add(&Command{Name: "GETDEL", Group: StoreGroup, Arity: Arity{1, 1}, Store: cmdGetDel})
	r.add(&Command{Name: "INCRBY", Group: StoreGroup, Arity: Arity{2, 2}, Store: cmdIncrBy})
	r.add(&Command{Name: "DECRBY", Group: StoreGroup, Arity: Arity{2, 2}, Store: cmdDecrBy})
	r.add(&Command{Name: "MSET", Group: StoreGroup, Arity: Arity{2, -1}, Store: cmdMSet})
	r.add(&Command{Name: "MGET", Group: StoreGroup, Arity: Arity{1, -1}, Store: cmdMGet})
	r.add(&Command{Name: "STRLEN", Group: StoreGroup, Arity: Arity{1, 1}, Store: cmdStrlen})
}

func cmdAppend(s *StoreContext, args []string) resp.Reply {
	key, suffix := args[0], args[1]
	v, ok := s.Store.Get(key)
	if !ok {
		s.Store.Insert(key, store.StringValue(suffix))
		return resp.Integer(len(suffix))
	}
	if v.Kind != store.KindString {
		return resp.ErrWrongType
	}
	v.Str += suffix
	s.Store.Insert(key, v)
	return resp.Integer(len(v.Str))
}

// cmdSet implements SET key value [EX seconds] [PX milliseconds], the
// ttl-modifier convenience form preserved from the original implementation.
func cmdSet(s *StoreContext, args []string) resp.Reply {
	key, value := args[0], args[1]
	var ttlSeconds int64
	hasTTL := false

	rest := args[2:]
	for len(rest) > 0 {
		switch strings.ToUpper(rest[0]) {
		case "EX":
			if len(rest) < 2 {
				return resp.ErrProtocol
			}
			secs, ok := parseInt(rest[1])
			if !ok || secs <= 0 {
				return resp.ErrNotNatural
			}
			ttlSeconds, hasTTL = secs, true
			rest = rest[2:]
		case "PX":
			if len(rest) < 2 {
				return resp.ErrProtocol
			}
			millis, ok := parseInt(rest[1])
			if !ok || millis <= 0 {
				return resp.ErrNotNatural
			}
			secs := millis / 1000
			if secs <= 0 {
				secs = 1
			}
			ttlSeconds, hasTTL = secs, true
			rest = rest[2:]
		default:
			return resp.ErrProtocol
		}
	}

	s.Store.Insert(key, store.StringValue(value))
	if hasTTL {
		s.Store.SetTTL(key, ttlSeconds)
	}
	return resp.SimpleString("OK")
}

func cmdGet(s *StoreContext, args []string) resp.Reply {
	v, ok := s.Store.Get(args[0])
	if !ok {
		return resp.NullBulkString()
	}
	if v.Kind != store.KindString {
		return resp.ErrWrongType
	}
	return resp.NewBulkString(v.Str)
}

func cmdGetSet(s *StoreContext, args []string) resp.Reply {
	key, value := args[0], args[1]
	v, existed := s.Store.Get(key)
	if existed && v.Kind != store.KindString {
		return resp.ErrWrongType
	}
	s.Store.Insert(key, store.StringValue(value))
	if !existed {
		return resp.NullBulkString()
	}
	return resp.NewBulkString(v.Str)
}

func cmdGetDel(s *StoreContext, args []string) resp.Reply {
	key := args[0]
	v, ok := s.Store.Get(key)
	if !ok {
		return resp.NullBulkString()
	}
	if v.Kind != store.KindString {
		return resp.ErrWrongType
	}
	s.Store.Remove(key)
	return resp.NewBulkString(v.Str)
}

func cmdIncrBy(s *StoreContext, args []string) resp.Reply {
	return incrDecr(s, args[0], args[1], 1)
}

func cmdDecrBy(s *StoreContext, args []string) resp.Reply {
	return incrDecr(s, args[0], args[1], -1)
}

func incrDecr(s *StoreContext, key, deltaStr string, sign int64) resp.Reply {
	delta, ok := parseInt(deltaStr)
	if !ok {
		return resp.ErrNotInteger
	}
	v, existed := s.Store.Get(key)
	var current int64
	if existed {
		if v.Kind != store.KindString {
			return resp.ErrWrongType
		}
		current, ok = parseInt(v.Str)
		if !ok {
			return resp.ErrNotInteger
		}
	}

	if sign < 0 {
		if delta == math.MinInt64 {
			return resp.ErrNotInteger
		}
		delta = -delta
	}
	next, ok := addInt64(current, delta)
	if !ok {
		return resp.ErrNotInteger
	}

	s.Store.Insert(key, store.StringValue(strconv.FormatInt(next, 10)))
	return resp.Integer(next)
}

// addInt64 adds a and b, reporting false on signed overflow rather than
// silently wrapping.
func addInt64(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

func cmdMSet(s *StoreContext, args []string) resp.Reply {
	if len(args)%2 != 0 {
		return resp.ErrWrongArgs("mset")
	}
	for i := 0; i < len(args); i += 2 {
		s.Store.Insert(args[i], store.StringValue(args[i+1]))
	}
	return resp.SimpleString("OK")
}

func cmdMGet(s *StoreContext, args []string) resp.Reply {
	elements := make([]resp.Reply, len(args))
	for i, key := range args {
		v, ok := s.Store.Get(key)
		if !ok || v.Kind != store.KindString {
			elements[i] = resp.NullBulkString()
			continue
		}
		elements[i] = resp.NewBulkString(v.Str)
	}
	return resp.Array{Elements: elements}
}

func cmdStrlen(s *StoreContext, args []string) resp.Reply {
	v, ok := s.Store.Get(args[0])
	if !ok {
		return resp.Integer(0)
	}
	if v.Kind != store.KindString {
		return resp.ErrWrongType
	}
	return resp.Integer(len(v.Str))
}
