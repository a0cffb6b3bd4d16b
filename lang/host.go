package lang

import (
	"context"
	"log/slog"
)

// Host expands a program the way an outer, lazy macro system would: the
// outermost invocation is expanded first and its result is rescanned.
//
// `eager!` and `lazy!` regions are handed to an [Engine]; any other
// invocation is answered by the plain form of its expander.
type Host struct {
	engine   *Engine
	resolver Resolver
	opts     options
}

// NewHost returns a host resolving invocations with r.
func NewHost(r Resolver, opts ...Option) *Host {
	return &Host{
		engine:   NewEngine(r, opts...),
		resolver: r,
		opts:     makeOptions(opts...),
	}
}

// Engine returns the engine used for `eager!` regions.
func (h *Host) Engine() *Engine { return h.engine }

type hostRun struct {
	*Host

	ctx   context.Context
	calls int
}

// Expand expands every invocation in tokens.
func (h *Host) Expand(ctx context.Context, tokens []Token) ([]Token, error) {
	r := &hostRun{Host: h, ctx: ctx}

	return r.expand(tokens, 1)
}

func (r *hostRun) expand(input []Token, depth int) ([]Token, error) {
	if depth > r.opts.maxDepth {
		return nil, ErrRecursionLimit.With(
			slog.String("limit", "depth"),
			slog.Int("max", r.opts.maxDepth),
		)
	}

	out := make([]Token, 0, len(input))

	for len(input) > 0 {
		c := Classify(input)

		switch c.Class {
		case ClassGroupOpen:
			sub, err := r.expand(c.Body, depth+1)
			if err != nil {
				return nil, err
			}

			g := Group(c.Delim, sub...)
			g.Joint = input[0].Joint
			out = append(out, g)
			input = input[1:]

		case ClassModeKeyword, ClassInvocationHead:
			repl, err := r.invoke(c)
			if err != nil {
				return nil, err
			}

			input = concat(repl, input[c.Width:])

		default:
			out = append(out, input[0])
			input = input[1:]
		}
	}

	return out, nil
}

// invoke expands the invocation described by c.
func (r *hostRun) invoke(c Classification) ([]Token, error) {
	r.calls++
	if r.calls > r.opts.maxExpansions {
		return nil, ErrRecursionLimit.With(
			slog.String("limit", "expansions"),
			slog.Int("max", r.opts.maxExpansions),
			slog.String("name", c.Name),
		)
	}

	if err := r.ctx.Err(); err != nil {
		return nil, err
	}

	r.opts.logger.TraceContext(
		r.ctx,
		"host expand",
		slog.String("name", c.Name),
		slog.String("class", c.Class.String()),
		slog.Int("args", len(c.Body)),
	)

	if c.Class == ClassModeKeyword {
		if c.Mode == ModeExpand {
			return r.engine.Eager(r.ctx, c.Body)
		}

		return r.engine.Lazy(r.ctx, c.Body)
	}

	exp, ok := r.resolver.Lookup(c.Name)
	if !ok {
		return nil, ErrUnresolvedInvocation.With(slog.String("name", c.Name))
	}

	out, err := exp.Expand(r.ctx, Direct(c.Name, c.Body...))
	if err != nil {
		return nil, err
	}

	return out.Tokens, nil
}
