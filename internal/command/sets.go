package command

import (
	"github.com/odinkv/kvstored/internal/resp"
	"github.com/odinkv/kvstored/internal/store"
)

func (r *Registry) registerSets() {
	r.add(&Command{Name: "SADD", Group: StoreGroup, Arity: Arity{2, -1}, Store: cmdSAdd})
	r.add(&Command{Name: "SREM", Group: StoreGroup, Arity: Arity{2, -1}, Store: cmdSRem})
	r.add(&Command{Name: "SMEMBERS", Group: StoreGroup, Arity: Arity{1, 1}, Store: cmdSMembers})
	r.add(&Command{Name: "SCARD", Group: StoreGroup, Arity: Arity{1, 1}, Store: cmdSCard})
	r.add(&Command{Name: "SISMEMBER", Group: StoreGroup, Arity: Arity{2, 2}, Store: cmdSIsMember})
}

func translateSetErr(err error) (resp.Reply, bool) {
	if err == store.ErrWrongType {
		return resp.ErrWrongType, true
	}
	return nil, false
}

func cmdSAdd(s *StoreContext, args []string) resp.Reply {
	n, err := s.Store.SAdd(args[0], args[1:]...)
	if reply, isErr := translateSetErr(err); isErr {
		return reply
	}
	return resp.Integer(n)
}

func cmdSRem(s *StoreContext, args []string) resp.Reply {
	n, err := s.Store.SRem(args[0], args[1:]...)
	if reply, isErr := translateSetErr(err); isErr {
		return reply
	}
	return resp.Integer(n)
}

func cmdSMembers(s *StoreContext, args []string) resp.Reply {
	members, err := s.Store.SMembers(args[0])
	if reply, isErr := translateSetErr(err); isErr {
		return reply
	}
	return resp.StringArray(members...)
}

func cmdSCard(s *StoreContext, args []string) resp.Reply {
	n, err := s.Store.SCard(args[0])
	if reply, isErr := translateSetErr(err); isErr {
		return reply
	}
	return resp.Integer(n)
}

func cmdSIsMember(s *StoreContext, args []string) resp.Reply {
	ok, err := s.Store.SIsMember(args[0], args[1])
	if reply, isErr := translateSetErr(err); isErr {
		return reply
	}
	if ok {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}
