package command

import (
	"strings"

	"github.com/odinkv/kvstored/internal/resp"
	"github.com/odinkv/kvstored/internal/store"
)

func (r *Registry) registerLists() {
	r.add(&Command{Name: "LPUSH", Group: StoreGroup, Arity: Arity{2, -1}, Store: cmdLPush})
	r.add(&Command{Name: "RPUSH", Group: StoreGroup, Arity: Arity{2, -1}, Store: cmdRPush})
	r.add(&Command{Name: "LPUSHX", Group: StoreGroup, Arity: Arity{2, -1}, Store: cmdLPushX})
	r.add(&Command{Name: "RPUSHX", Group: StoreGroup, Arity: Arity{2, -1}, Store: cmdRPushX})
	r.add(&Command{Name: "LPOP", Group: StoreGroup, Arity: Arity{1, 2}, Store: cmdLPop})
	r.add(&Command{Name: "RPOP", Group: StoreGroup, Arity: Arity{1, 2}, Store: cmdRPop})
	r.add(&Command{Name: "LLEN", Group: StoreGroup, Arity: Arity{1, 1}, Store: cmdLLen})
	r.add(&Command{Name: "LRANGE", Group: StoreGroup, Arity: Arity{3, 3}, Store: cmdLRange})
	r.add(&Command{Name: "LSET", Group: StoreGroup, Arity: Arity{3, 3}, Store: cmdLSet})
	r.add(&Command{Name: "LREM", Group: StoreGroup, Arity: Arity{3, 3}, Store: cmdLRem})
	r.add(&Command{Name: "LINDEX", Group: StoreGroup, Arity: Arity{2, 2}, Store: cmdLIndex})
	r.add(&Command{Name: "SORT", Group: StoreGroup, Arity: Arity{1, 2}, Store: cmdSort})
}

func translateListErr(err error) (resp.Reply, bool) {
	switch err {
	case nil:
		return nil, false
	case store.ErrWrongType:
		return resp.ErrWrongType, true
	case store.ErrNoList:
		return resp.NewError("ERR", "no list found with entered key"), true
	case store.ErrOutOfRange:
		return resp.NewError("ERR", "index out of range"), true
	default:
		return resp.NewError("ERR", err.Error()), true
	}
}

func cmdLPush(s *StoreContext, args []string) resp.Reply {
	n, err := s.Store.Push(args[0], false, false, args[1:]...)
	if reply, isErr := translateListErr(err); isErr {
		return reply
	}
	return resp.Integer(n)
}

func cmdRPush(s *StoreContext, args []string) resp.Reply {
	n, err := s.Store.Push(args[0], true, false, args[1:]...)
	if reply, isErr := translateListErr(err); isErr {
		return reply
	}
	return resp.Integer(n)
}

func cmdLPushX(s *StoreContext, args []string) resp.Reply {
	n, err := s.Store.Push(args[0], false, true, args[1:]...)
	if reply, isErr := translateListErr(err); isErr {
		return reply
	}
	return resp.Integer(n)
}

func cmdRPushX(s *StoreContext, args []string) resp.Reply {
	n, err := s.Store.Push(args[0], true, true, args[1:]...)
	if reply, isErr := translateListErr(err); isErr {
		return reply
	}
	return resp.Integer(n)
}

func popArgs(args []string) (key string, count int, reply resp.Reply, ok bool) {
	if len(args) == 1 {
		return args[0], 1, nil, true
	}
	n, valid := parseNatural(args[1])
	if !valid {
		return "", 0, resp.ErrNotNatural, false
	}
	return args[0], n, nil, true
}

func cmdLPop(s *StoreContext, args []string) resp.Reply {
	return doPop(s, args, false)
}

func cmdRPop(s *StoreContext, args []string) resp.Reply {
	return doPop(s, args, true)
}

func doPop(s *StoreContext, args []string, right bool) resp.Reply {
	key, count, errReply, ok := popArgs(args)
	if !ok {
		return errReply
	}
	popped, existed, err := s.Store.Pop(key, right, count)
	if reply, isErr := translateListErr(err); isErr {
		return reply
	}
	if !existed {
		if len(args) == 2 {
			return resp.Array{Null: true}
		}
		return resp.NullBulkString()
	}
	if len(args) == 2 {
		return resp.StringArray(popped...)
	}
	return resp.NewBulkString(popped[0])
}

func cmdLLen(s *StoreContext, args []string) resp.Reply {
	n, err := s.Store.ListLen(args[0])
	if reply, isErr := translateListErr(err); isErr {
		return reply
	}
	return resp.Integer(n)
}

func cmdLRange(s *StoreContext, args []string) resp.Reply {
	start, ok1 := parseInt(args[1])
	stop, ok2 := parseInt(args[2])
	if !ok1 || !ok2 {
		return resp.ErrNotInteger
	}
	out, err := s.Store.Range(args[0], int(start), int(stop))
	if reply, isErr := translateListErr(err); isErr {
		return reply
	}
	return resp.StringArray(out...)
}

func cmdLSet(s *StoreContext, args []string) resp.Reply {
	index, ok := parseInt(args[1])
	if !ok {
		return resp.ErrNotInteger
	}
	err := s.Store.SetIndex(args[0], int(index), args[2])
	if err == store.ErrNoList {
		return resp.NewError("ERR", "no such key")
	}
	if reply, isErr := translateListErr(err); isErr {
		return reply
	}
	return resp.SimpleString("OK")
}

func cmdLRem(s *StoreContext, args []string) resp.Reply {
	count, ok := parseInt(args[1])
	if !ok {
		return resp.ErrNotInteger
	}
	n, err := s.Store.Rem(args[0], int(count), args[2])
	if reply, isErr := translateListErr(err); isErr {
		return reply
	}
	return resp.Integer(n)
}

func cmdLIndex(s *StoreContext, args []string) resp.Reply {
	index, ok := parseInt(args[1])
	if !ok {
		return resp.ErrNotInteger
	}
	v, found, err := s.Store.Index(args[0], int(index))
	if reply, isErr := translateListErr(err); isErr {
		return reply
	}
	if !found {
		return resp.NullBulkString()
	}
	return resp.NewBulkString(v)
}

func cmdSort(s *StoreContext, args []string) resp.Reply {
	numeric, descending := true, false
	if len(args) == 2 {
		switch strings.ToUpper(args[1]) {
		case "ASC":
			descending = false
		case "DESC":
			descending = true
		case "ALPHA":
			numeric = false
		default:
			return resp.ErrProtocol
		}
	}
	out, parsedOK, err := s.Store.SortedCopy(args[0], numeric, descending)
	if reply, isErr := translateListErr(err); isErr {
		return reply
	}
	if !parsedOK {
		return resp.ErrNotInteger
	}
	return resp.StringArray(out...)
}
