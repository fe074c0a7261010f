package command

import (
	"context"

	"github.com/odinkv/kvstored/internal/delegator"
	"github.com/odinkv/kvstored/internal/resp"
)

// Runner bundles the two delegator workers and their context
// constructors so both a real session and the HTTP console can dispatch
// a command through the same serialization path.
type Runner struct {
	Store    *delegator.Worker
	Attrs    *delegator.Worker
	StoreCtx func() *StoreContext
	AttrsCtx func() *AttrsContext
}

// Run submits cmd to the worker its Group owns and blocks for the
// result, or calls the client-local handler directly for
// ClientLocalGroup commands.
func (r *Runner) Run(ctx context.Context, cmd *Command, args []string, sess Session) resp.Reply {
	switch cmd.Group {
	case StoreGroup:
		return r.runOn(ctx, r.Store, func() resp.Reply { return cmd.Store(r.StoreCtx(), args) })
	case AttributesGroup:
		return r.runOn(ctx, r.Attrs, func() resp.Reply { return cmd.Attrs(r.AttrsCtx(), args) })
	default:
		return cmd.Client(sess, args)
	}
}

func (r *Runner) runOn(ctx context.Context, w *delegator.Worker, work func() resp.Reply) resp.Reply {
	result := make(chan resp.Reply, 1)
	if err := w.Submit(ctx, func() { result <- work() }); err != nil {
		return resp.NewError("ERR", "server is shutting down")
	}
	return <-result
}
