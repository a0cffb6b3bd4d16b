package lang

import (
	"context"
	"log/slog"

	"github.com/ardnew/eager/log"
)

// Engine expands invocations in call-by-value order: the arguments of an
// invocation are fully expanded before the invocation itself.
//
// An Engine is safe for concurrent use; each entry invocation owns its own
// frame stack.
type Engine struct {
	resolver Resolver
	opts     options
}

// NewEngine returns an engine resolving invocations with r.
func NewEngine(r Resolver, opts ...Option) *Engine {
	return &Engine{resolver: r, opts: makeOptions(opts...)}
}

// Eager decodes input starting in [ModeExpand], as if written `eager!{input}`.
func (e *Engine) Eager(ctx context.Context, input []Token) ([]Token, error) {
	return e.start(ctx, input).decode()
}

// Lazy decodes input as if written `eager!{lazy!{input}}`. Invocations are left
// as they are, except inside nested `eager!` regions.
func (e *Engine) Lazy(ctx context.Context, input []Token) ([]Token, error) {
	return e.Eager(ctx, Keyword(ModeRestrict, input...))
}

// run is the state of a single entry invocation.
type run struct {
	ctx      context.Context
	resolver Resolver
	stack    []frame
	input    []Token
	opts     options
	calls    int
	steps    int
}

func (e *Engine) start(ctx context.Context, input []Token) *run {
	return &run{
		ctx:      ctx,
		resolver: e.resolver,
		opts:     e.opts,
		stack:    []frame{{mode: ModeExpand}},
		input:    input,
	}
}

func (r *run) top() *frame { return &r.stack[len(r.stack)-1] }

// decode runs the engine until the bottom frame is exhausted.
func (r *run) decode() ([]Token, error) {
	trace := r.opts.logger.IsEnabled(r.ctx, log.LevelTrace)

	for {
		rule, err := r.step()
		if err != nil {
			return nil, err
		}

		if trace {
			r.opts.logger.TraceContext(
				r.ctx,
				"decode",
				slog.Int("step", r.steps),
				slog.Int("rule", rule),
				slog.String("input", String(r.input)),
				slog.String("stack", renderStack(r.stack)),
			)
		}

		if rule == ruleDone {
			return r.top().prefix, nil
		}
	}
}

// Rules of a single decode step.
const (
	ruleFlip     = 1 // mode-suffix resumes in the opposite mode
	rulePop      = 2 // finished frame becomes the parent's pending group
	ruleDone     = 3 // bottom frame exhausted
	ruleDispatch = 4 // pending group completes an invocation, or is promoted
	ruleDescend  = 5 // group opens a new frame
	ruleUnwrap   = 6 // keyword of the current mode
	ruleSwitch   = 7 // keyword of the opposite mode
	ruleSimple   = 8 // any other token
)

// step applies one rule to the top frame and returns its number.
func (r *run) step() (int, error) {
	r.steps++
	top := r.top()

	if len(r.input) == 0 {
		switch {
		case top.group != nil:
			if top.mode == ModeExpand {
				if name, ok := top.head(); ok {
					return ruleDispatch, r.dispatch(name)
				}
			}

			g := top.group
			top.prefix = append(top.prefix, Group(g.delim, g.tokens...))
			r.input = top.postfix
			top.postfix = nil
			top.group = nil

			return ruleDispatch, nil

		case len(top.suffix) > 0:
			top.mode = top.mode.Opposite()
			r.input = top.suffix
			top.suffix = nil

			return ruleFlip, nil

		case len(r.stack) > 1:
			child := r.stack[len(r.stack)-1]
			r.stack = r.stack[:len(r.stack)-1]
			r.top().group.tokens = child.prefix

			return rulePop, nil

		default:
			return ruleDone, nil
		}
	}

	c := Classify(r.input)

	switch c.Class {
	case ClassGroupOpen:
		if len(r.stack) >= r.opts.maxDepth {
			return ruleDescend, ErrRecursionLimit.With(
				slog.String("limit", "depth"),
				slog.Int("max", r.opts.maxDepth),
			)
		}

		top.postfix = r.input[1:]
		top.group = &pending{delim: c.Delim}
		r.stack = append(r.stack, frame{mode: top.mode})
		r.input = c.Body

		return ruleDescend, nil

	case ClassModeKeyword:
		rest := r.input[c.Width:]

		if c.Mode == top.mode {
			r.input = concat(c.Body, rest)

			return ruleUnwrap, nil
		}

		if len(top.suffix) > 0 {
			// The pending suffix must be decoded in the mode being entered
			// once the new suffix has been decoded in the current one.
			rest = concat(rest, Keyword(c.Mode, top.suffix...))
		}

		top.suffix = rest
		top.mode = c.Mode
		r.input = c.Body

		return ruleSwitch, nil
	}

	top.prefix = append(top.prefix, r.input[0])
	r.input = r.input[1:]

	return ruleSimple, nil
}
