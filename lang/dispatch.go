package lang

import (
	"context"
	"log/slog"
)

// Call is the argument of an [Expander]. It is a tagged variant:
//
//   - Direct: Resume is nil. The expander returns its replacement as ordinary
//     output.
//   - ViaDispatch: Resume is the saved decode state of the engine that found
//     the invocation. The expander routes its replacement back to the engine
//     by returning Resume in its [Expansion].
type Call struct {
	Resume *Resumption
	Name   string
	Args   []Token
}

// Direct returns a call made outside the engine.
func Direct(name string, args ...Token) Call {
	return Call{Name: name, Args: args}
}

// ViaDispatch reports whether c was made by the engine.
func (c Call) ViaDispatch() bool { return c.Resume != nil }

// Expansion is the result of an [Expander].
type Expansion struct {
	Resume *Resumption
	Tokens []Token
}

// Return answers c with the given replacement: returned as-is for a direct
// call, or routed back to the engine for a dispatched call.
func (c Call) Return(tokens []Token) Expansion {
	return Expansion{Tokens: tokens, Resume: c.Resume}
}

// Expander is a named rewrite invoked as `name!(args)`.
type Expander interface {
	Expand(ctx context.Context, call Call) (Expansion, error)
}

// ExpanderFunc adapts a function to the [Expander] interface.
type ExpanderFunc func(ctx context.Context, call Call) (Expansion, error)

// Expand calls f.
func (f ExpanderFunc) Expand(ctx context.Context, call Call) (Expansion, error) {
	return f(ctx, call)
}

// Resolver looks up expanders by name.
type Resolver interface {
	Lookup(name string) (Expander, bool)
}

// dispatch invokes the expander named by the invocation head at the front of
// the top frame's prefix, with the pending group's contents as arguments, and
// resumes decoding with the replacement followed by the stored postfix.
func (r *run) dispatch(name string) error {
	top := r.top()
	args := top.group.tokens

	top.group = nil
	top.prefix = top.prefix[:len(top.prefix)-2]

	r.calls++
	if r.calls > r.opts.maxExpansions {
		return ErrRecursionLimit.With(
			slog.String("limit", "expansions"),
			slog.Int("max", r.opts.maxExpansions),
			slog.String("name", name),
		)
	}

	if err := r.ctx.Err(); err != nil {
		return err
	}

	exp, ok := r.resolver.Lookup(name)
	if !ok {
		return ErrUnresolvedInvocation.With(slog.String("name", name))
	}

	r.opts.logger.TraceContext(
		r.ctx,
		"dispatch",
		slog.String("name", name),
		slog.Int("args", len(args)),
		slog.Int("depth", len(r.stack)),
	)

	resume := &Resumption{stack: r.stack}
	r.stack = nil

	out, err := exp.Expand(r.ctx, Call{Name: name, Args: args, Resume: resume})
	if err != nil {
		return err
	}

	if out.Resume.Depth() == 0 {
		return ErrNotEagerEnabled.With(slog.String("name", name))
	}

	r.stack = out.Resume.stack
	top = r.top()
	r.input = concat(out.Tokens, top.postfix)
	top.postfix = nil

	return nil
}
