package lang

import "github.com/ardnew/eager/log"

// DefaultMaxDepth is the default maximum number of nested decode frames.
// Users may modify this before constructing an [Engine] to change the default.
var DefaultMaxDepth = 100

// DefaultMaxExpansions is the default maximum number of expander calls made
// while resolving a single entry invocation.
var DefaultMaxExpansions = 1024

// DefaultSentinel is the hygienic identifier conventionally shared by every
// dispatch-enabled declaration.
const DefaultSentinel = "eager_1"

// optionsKey holds configuration shared by the engine, host, scanner and
// declaration reader. It is comparable so it can participate in cache keys.
type optionsKey struct {
	sentinel      string
	maxDepth      int
	maxExpansions int
	maxMatchSteps int
	strictRules   bool
}

type options struct {
	logger log.Logger
	optionsKey
}

// Option configures scanning, declaration or expansion behavior.
type Option func(*options)

// WithMaxDepth sets the maximum number of nested decode frames.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithMaxExpansions sets the maximum number of expander calls per entry
// invocation.
func WithMaxExpansions(n int) Option {
	return func(o *options) {
		o.maxExpansions = n
	}
}

// WithMaxMatchSteps sets the number of backtracking steps a rule pattern
// may take to match one call.
func WithMaxMatchSteps(n int) Option {
	return func(o *options) {
		o.maxMatchSteps = n
	}
}

// WithSentinel sets the hygienic identifier reserved by dispatch-enabled
// declarations that do not name one themselves.
func WithSentinel(name string) Option {
	return func(o *options) {
		o.sentinel = name
	}
}

// WithStrictRules turns the ambiguous-rule diagnostic into an error.
func WithStrictRules(strict bool) Option {
	return func(o *options) {
		o.strictRules = strict
	}
}

// WithLogger sets the structured logger for trace-level debugging.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// makeOptions returns the defaults overridden by opts.
func makeOptions(opts ...Option) options {
	o := options{
		optionsKey: optionsKey{
			sentinel:      DefaultSentinel,
			maxDepth:      DefaultMaxDepth,
			maxExpansions: DefaultMaxExpansions,
			maxMatchSteps: DefaultMaxMatchSteps,
		},
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
