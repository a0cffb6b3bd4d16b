// Package cli contains the command line interface for eager.
//
// # Usage
//
// Sources name files or "-" for stdin. Macros come from rule files given
// with --rules, from every rule file on the rules search path, and from
// declarations inside the sources themselves:
//
//	eager -r rules.eager main.eager
//	echo 'add!(1, 2)' | eager -r rules.yaml expand -o json
//	eager -r rules.eager eval -e x=10 main.eager
//	eager -r rules.eager rules add
//	eager -r rules.eager serve --addr :8080
//
// # Configuration
//
// Flags may be set in config.yaml under the user configuration directory.
// The init command writes that file from the flags of its invocation:
//
//	eager -r ~/rules/common.eager --max-depth 32 init
//
// Keys name long flags with hyphens or underscores, and nested mappings
// join with a hyphen (log: {level: debug} sets --log-level).
//
// # Rules Search Path
//
// Unless --no-search is given, rule files (.eager, .yaml, .yml) are loaded
// from each directory in $EAGER_RULES_PATH followed by the rules directory
// under the configuration directory. Files named with --rules load last and
// replace macros of the same name.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: output format (text, json)
//   - --log-time-layout: timestamp format (RFC3339, Kitchen, ...)
//   - --log-caller: include caller information
//   - --log-pretty: colorize output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o eager .
//
// Then --pprof-mode selects a mode (allocs, block, clock, cpu, goroutine,
// heap, mem, mutex, thread, trace) and --pprof-dir the output directory,
// by default under the user cache directory.
package cli
