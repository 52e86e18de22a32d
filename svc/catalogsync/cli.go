package catalogsync

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
	"github.com/dmitrymomot/catalogsync/pkg/config"
	"github.com/dmitrymomot/catalogsync/pkg/environment"
	"github.com/dmitrymomot/catalogsync/pkg/logger"
)

const (
	cmdCreate  = "create"
	cmdUpdate  = "update"
	cmdArchive = "archive"
	cmdSync    = "sync"
	cmdPurge   = "purge"
	cmdList    = "list"
	cmdDiff    = "diff"
	cmdExport  = "export"
	cmdHelp    = "help"
)

// Exit codes returned by Main.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

const usageText = `Usage: catalogsync [-env name] [-adapter name] [-plans file] <command> [flags] [args]

Commands:
  create   [-continue-on-error]          create missing products and prices
  update   [-continue-on-error]          push mutable fields of declared plans
  archive  [-continue-on-error] <id>...  deactivate products and their prices
  sync                                   mirror the managed catalog into the store
  purge    [-yes]                        delete every mirrored row
  list     [-all] products|prices        print the remote catalog
  diff     [-json] [-fail-on-drift]      compare plans with the remote catalog
  export   [-o destination]              write the managed catalog as JSON
`

type invocation struct {
	command string
	args    []string

	env     string
	adapter string
	plans   string

	continueOnError *bool
	yes             bool
	all             bool
	asJSON          bool
	failOnDrift     bool
	output          string
}

func (inv *invocation) bindGlobal(fs *flag.FlagSet) {
	fs.StringVar(&inv.env, "env", inv.env, "deployment environment (overrides APP_ENV)")
	fs.StringVar(&inv.adapter, "adapter", inv.adapter, "storage adapter (overrides DB_ADAPTER)")
	fs.StringVar(&inv.plans, "plans", inv.plans, "plans file (overrides PLANS_FILE)")
}

func (inv *invocation) itemOptions() []catalog.Option {
	if inv.continueOnError == nil {
		return nil
	}
	return []catalog.Option{catalog.WithContinueOnItemError(*inv.continueOnError)}
}

// Main runs one command and returns the process exit code.
func Main(ctx context.Context, args []string, opts ...Option) int {
	probe := &App{errOut: os.Stderr}
	for _, opt := range opts {
		opt(probe)
	}
	errOut := probe.errOut

	inv, err := parseArgs(args, errOut)
	if errors.Is(err, flag.ErrHelp) {
		return ExitOK
	}
	if err != nil {
		fmt.Fprintf(errOut, "catalogsync: %v\n\n%s", err, usageText)
		return ExitUsage
	}

	cfg, err := loadConfig(inv)
	if err != nil {
		fmt.Fprintf(errOut, "catalogsync: %v\n", err)
		return exitCode(err)
	}

	app, err := New(cfg, opts...)
	if err != nil {
		fmt.Fprintf(errOut, "catalogsync: %v\n", err)
		return exitCode(err)
	}
	defer app.Close()
	logger.SetAsDefault(app.Logger())

	ctx = environment.WithContext(ctx, app.Environment())
	ctx = logger.WithRun(ctx, inv.command)

	if err := app.run(ctx, inv); err != nil {
		app.log.ErrorContext(ctx, inv.command+" failed", logger.Error(err))
		return exitCode(err)
	}
	return ExitOK
}

func exitCode(err error) int {
	if errors.Is(err, ErrUsage) {
		return ExitUsage
	}
	return ExitError
}

func (a *App) run(ctx context.Context, inv *invocation) error {
	switch inv.command {
	case cmdCreate:
		_, err := a.Create(ctx, inv.itemOptions()...)
		return err
	case cmdUpdate:
		_, err := a.Update(ctx, inv.itemOptions()...)
		return err
	case cmdArchive:
		_, err := a.Archive(ctx, inv.args, inv.itemOptions()...)
		return err
	case cmdSync:
		_, err := a.Sync(ctx)
		return err
	case cmdPurge:
		return a.Purge(ctx, inv.yes)
	case cmdList:
		return a.List(ctx, inv.args[0], inv.all)
	case cmdDiff:
		_, err := a.Diff(ctx, inv.asJSON, inv.failOnDrift)
		return err
	case cmdExport:
		loc, err := a.Export(ctx, inv.output)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, loc)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, inv.command)
	}
}

// loadConfig reads .env files for the selected environment, then the process
// environment, then applies flag overrides.
func loadConfig(inv *invocation) (Config, error) {
	name := inv.env
	if name == "" {
		name = os.Getenv("APP_ENV")
	}
	if name != "" {
		env, err := environment.Parse(name)
		if err != nil {
			return Config{}, errors.Join(ErrUsage, err)
		}
		name = env.String()
	}
	if err := config.LoadEnvironment(name); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	if inv.env != "" {
		cfg.Env = inv.env
	}
	if inv.adapter != "" {
		cfg.Adapter = inv.adapter
	}
	if inv.plans != "" {
		cfg.PlansFile = inv.plans
	}
	return cfg, nil
}

func parseArgs(args []string, errOut io.Writer) (*invocation, error) {
	inv := &invocation{}

	global := flag.NewFlagSet("catalogsync", flag.ContinueOnError)
	global.SetOutput(errOut)
	global.Usage = func() { fmt.Fprint(errOut, usageText) }
	inv.bindGlobal(global)
	if err := global.Parse(args); err != nil {
		return nil, err
	}
	if global.NArg() == 0 {
		return nil, fmt.Errorf("%w: missing command", ErrUsage)
	}
	inv.command = global.Arg(0)
	if inv.command == cmdHelp {
		fmt.Fprint(errOut, usageText)
		return nil, flag.ErrHelp
	}

	fs := flag.NewFlagSet(inv.command, flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() { fmt.Fprint(errOut, usageText) }
	inv.bindGlobal(fs)

	var minArgs, maxArgs int
	switch inv.command {
	case cmdCreate, cmdUpdate, cmdArchive:
		fs.BoolFunc("continue-on-error", "record failed items and keep going", func(s string) error {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return err
			}
			inv.continueOnError = &v
			return nil
		})
		if inv.command == cmdArchive {
			minArgs, maxArgs = 1, -1
		}
	case cmdSync:
	case cmdPurge:
		fs.BoolVar(&inv.yes, "yes", false, "confirm purge in production")
	case cmdList:
		fs.BoolVar(&inv.all, "all", false, "include objects managed by other owners")
		minArgs, maxArgs = 1, 1
	case cmdDiff:
		fs.BoolVar(&inv.asJSON, "json", false, "print the report as JSON")
		fs.BoolVar(&inv.failOnDrift, "fail-on-drift", false, "exit 1 when plans and remote differ")
	case cmdExport:
		fs.StringVar(&inv.output, "o", "", "local path or s3://bucket/key")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, inv.command)
	}

	rest, err := parseInterspersed(fs, global.Args()[1:])
	if err != nil {
		return nil, err
	}
	if len(rest) < minArgs || (maxArgs >= 0 && len(rest) > maxArgs) {
		return nil, fmt.Errorf("%w: wrong number of arguments for %s", ErrUsage, inv.command)
	}
	inv.args = rest
	return inv, nil
}

// parseInterspersed lets flags follow positional arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}
