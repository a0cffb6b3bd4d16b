// Package lang implements eager expansion of token-tree macros.
//
// A conventional macro system expands the outermost invocation first and
// rescans its result. Inside an `eager!{...}` region this package expands
// the innermost invocations first, so a macro receives the already expanded
// output of any macros passed to it as arguments.
//
// # Tokens
//
// Source text is scanned into trees of [Token]: identifiers, literals,
// single-character punctuation and delimited groups. Each token records
// whether it is joint with the next one, which distinguishes `a!` from `a !`
// when the tokens are written back out.
//
// # Declarations
//
// Macros are declared in a `macro_rules!`-like syntax:
//
//	eager_macro_rules!{ $eager_1
//	    /// Adds two expressions.
//	    macro_rules! add {
//	        ($a:expr, $b:expr) => { $a + $b };
//	    }
//	}
//
// Declarations inside `eager_macro_rules!` are dispatch-enabled: besides
// their plain rules they answer the tagged form the engine uses to hand
// them a suspended decode state. See [ParseDeclarations], [Declare] and
// [ParseDeclarationsYAML].
//
// # Expansion
//
// An [Engine] runs the decode loop over an `eager!` or `lazy!` body. When it
// finds `name!(args)` in expand mode it calls the expander registered for
// name with a [Call] carrying a [Resumption]; the expander transcribes its
// output and the engine resumes with that output in front of the unread
// input. A [Host] drives whole programs, expanding plain invocations
// outside-in and handing eager regions to its engine.
//
// # Evaluation
//
// [Evaluate] runs expanded tokens as an expr-lang expression with the
// names from [Builtins] in scope.
package lang
