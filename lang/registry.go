package lang

import (
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// Registry maps invocation names to expanders. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	expanders map[string]Expander
}

// NewRegistry returns a registry holding macros.
func NewRegistry(macros ...*Macro) *Registry {
	r := &Registry{expanders: make(map[string]Expander, len(macros))}
	r.Register(macros...)

	return r
}

// Register adds macros to r, replacing any expander of the same name.
func (r *Registry) Register(macros ...*Macro) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.expanders == nil {
		r.expanders = make(map[string]Expander, len(macros))
	}

	for _, m := range macros {
		r.expanders[m.Name()] = m
	}
}

// Define adds an arbitrary expander under name.
func (r *Registry) Define(name string, e Expander) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.expanders == nil {
		r.expanders = make(map[string]Expander)
	}

	r.expanders[name] = e
}

// Lookup implements [Resolver].
func (r *Registry) Lookup(name string) (Expander, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.expanders[name]

	return e, ok
}

// Macro returns the declared macro named name, if any.
func (r *Registry) Macro(name string) (*Macro, bool) {
	e, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}

	m, ok := e.(*Macro)

	return m, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.expanders))
}

// Len returns the number of registered expanders.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.expanders)
}

// Replace atomically swaps the contents of r for macros. Expanders added
// with [Registry.Define] are dropped.
func (r *Registry) Replace(macros ...*Macro) {
	next := make(map[string]Expander, len(macros))
	for _, m := range macros {
		next[m.Name()] = m
	}

	r.mu.Lock()
	r.expanders = next
	r.mu.Unlock()
}

// Declare rewrites decls into dual-form macros.
//
// Every rule of a dispatch-enabled declaration yields a tagged rule, and
// every rule of any declaration yields a plain rule; tagged rules come
// first and both keep declaration order. sentinel is the hygienic
// identifier reserved by declarations that do not name their own.
//
// A rule whose pattern leads with `@eager`, or whose pattern is a bare
// token-tree catch-all, can capture calls meant for other rules of the same
// macro. Such rules are logged at Warn level, or rejected with
// [ErrAmbiguousRule] under [WithStrictRules].
func Declare(sentinel string, decls []Declaration, opts ...Option) ([]*Macro, error) {
	o := makeOptions(opts...)
	if sentinel == "" {
		sentinel = o.sentinel
	}

	macros := make([]*Macro, 0, len(decls))

	for _, d := range decls {
		m, err := declare(sentinel, d, o)
		if err != nil {
			return nil, err
		}

		macros = append(macros, m)
	}

	return macros, nil
}

func declare(sentinel string, d Declaration, o options) (*Macro, error) {
	if d.Name == "" {
		return nil, ErrDeclaration.With(slog.String("reason", "missing name"))
	}

	if d.Sentinel != "" {
		sentinel = d.Sentinel
	}

	m := &Macro{
		name:     d.Name,
		sentinel: sentinel,
		meta:     d.Meta,
		eager:    d.Eager,
		logger:   o.logger,
		steps:    o.maxMatchSteps,
	}

	plain := make([]macroRule, 0, len(d.Rules))

	for i, r := range d.Rules {
		p, err := CompilePattern(r.Pattern)
		if err != nil {
			return nil, WrapError(err).With(
				slog.String("name", d.Name),
				slog.Int("rule", i),
			)
		}

		if d.Eager && slices.Contains(p.Names(), sentinel) {
			return nil, ErrSentinelCollision.With(
				slog.String("name", d.Name),
				slog.Int("rule", i),
				slog.String("sentinel", sentinel),
			)
		}

		if reason, ok := ambiguous(r.Pattern); ok {
			attrs := []slog.Attr{
				slog.String("name", d.Name),
				slog.Int("rule", i),
				slog.String("reason", reason),
			}

			if o.strictRules {
				return nil, ErrAmbiguousRule.With(attrs...)
			}

			o.logger.Warn("ambiguous rule", attrs...)
		}

		if d.Eager {
			m.rules = append(m.rules, macroRule{pattern: p, src: r, tagged: true})
		}

		plain = append(plain, macroRule{pattern: p, src: r})
	}

	m.rules = append(m.rules, plain...)

	return m, nil
}

// ambiguous reports whether pattern can shadow the tagged form of a rule.
func ambiguous(pattern []Token) (string, bool) {
	switch {
	case len(pattern) > 1 && pattern[0].IsPunct("@") && pattern[1].Is(KindIdent, ModeExpand.String()):
		return "pattern leads with @" + ModeExpand.String(), true

	case len(pattern) == 3 &&
		pattern[0].IsPunct(metaMarker) &&
		pattern[1].IsGroup() && pattern[1].Delim == DelimRound &&
		pattern[2].IsPunct("*"):
		body := pattern[1].Tokens
		if len(body) == 4 && body[0].IsPunct(metaMarker) && body[1].Kind == KindIdent &&
			body[2].IsPunct(":") && body[3].Is(KindIdent, "tt") {
			return "pattern is an unconstrained catch-all", true
		}
	}

	return "", false
}
