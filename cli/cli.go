package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/eager/cli/cmd"
	"github.com/ardnew/eager/lang"
	"github.com/ardnew/eager/log"
	"github.com/ardnew/eager/pkg"
)

// CLI is the top-level command-line interface for eager.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Rules  []string `help:"Rule file(s) declaring macros (.eager, .yaml)" name:"rules" short:"r" type:"existingfile"`
	Search bool     `default:"true" help:"Also load rule files found on ${rulesPathEnv}." negatable:""`

	Engine engineConfig `embed:"" group:"engine"`

	Version kong.VersionFlag `help:"Print version and exit" short:"V"`

	Expand cmd.Expand `cmd:"" default:"withargs" help:"Expand sources (default)"`
	Eval   cmd.Eval   `cmd:""                    help:"Expand sources and evaluate the result"`
	Fmt    cmd.Fmt    `cmd:""                    help:"Reformat sources without expanding"`
	List   cmd.Rules  `cmd:""                    help:"List or print declared macros"          name:"rules"`
	Init   cmd.Init   `cmd:""                    help:"Initialize configuration file"`
	Serve  cmd.Serve  `cmd:""                    help:"Serve the expansion HTTP API"`
	Repl   cmd.Repl   `cmd:""                    help:"Start an interactive session"`
}

// engineConfig holds the flags passed to the expansion engine.
type engineConfig struct {
	Sentinel      string `default:"${defaultSentinel}"      help:"Sentinel of generated eager rules"`
	MaxDepth      int    `default:"${defaultMaxDepth}"      help:"Maximum nesting of eager blocks"`
	MaxExpansions int    `default:"${defaultMaxExpansions}" help:"Maximum macro expansions per input"`
	Strict        bool   `default:"false"                   help:"Reject rules a wildcard may shadow"`
}

func (engineConfig) vars() kong.Vars {
	return kong.Vars{
		"defaultSentinel":      lang.DefaultSentinel,
		"defaultMaxDepth":      strconv.Itoa(lang.DefaultMaxDepth),
		"defaultMaxExpansions": strconv.Itoa(lang.DefaultMaxExpansions),
	}
}

func (engineConfig) group() kong.Group {
	return kong.Group{Key: "engine", Title: "Expansion options"}
}

func (e engineConfig) options() []lang.Option {
	return []lang.Option{
		lang.WithSentinel(e.Sentinel),
		lang.WithMaxDepth(e.MaxDepth),
		lang.WithMaxExpansions(e.MaxExpansions),
		lang.WithStrictRules(e.Strict),
	}
}

// ruleFiles returns the search path rule files followed by the named ones,
// so that explicitly named files override macros of the same name.
func (c *CLI) ruleFiles() []string {
	var files []string

	if c.Search {
		files = searchRules(rulesPath())
	}

	return append(files, c.Rules...)
}

// Run executes the eager CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cacheDir(),
		"rulesPathEnv":       "$" + envPrefix() + "RULES_PATH",
		"version":            strings.TrimSpace(pkg.Version),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cli.Engine.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Configure the logger before kong reports any parse error.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(groups(cli.Log.group(), cli.Engine.group(), cli.Pprof.group())),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cli.Log.start(ctx)

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	ws := cmd.Workspace{
		RuleFiles: cli.ruleFiles(),
		Options:   cli.Engine.options(),
		Logger:    log.Default(),
	}

	log.DebugContext(ctx, "workspace",
		slog.Any("rules", ws.RuleFiles),
		slog.String("sentinel", cli.Engine.Sentinel),
		slog.Int("max_depth", cli.Engine.MaxDepth),
		slog.Int("max_expansions", cli.Engine.MaxExpansions),
		slog.Bool("strict", cli.Engine.Strict),
	)

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithWorkspace(ctx, ws)

	return ktx.Run(ctx, &cli)
}

// groups drops the empty groups of features compiled out of the binary.
func groups(gs ...kong.Group) []kong.Group {
	return slices.DeleteFunc(gs, func(g kong.Group) bool { return g.Key == "" })
}
