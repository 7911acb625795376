package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/offlinefirst/actionrec/internal/buildinfo"
	"github.com/offlinefirst/actionrec/pkg/config"
	"github.com/offlinefirst/actionrec/pkg/logging"
)

// ConfigEnv names the environment variable consulted when --config is absent.
const ConfigEnv = "ACTIONREC_CONFIG"

type command struct {
	name        string
	description string
	// args is appended to the usage line, e.g. " <recording.json>".
	args      string
	configure func(fs *flag.FlagSet)
	run       func(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error
	skipInit  bool
}

func (c command) usage() string {
	return fmt.Sprintf("%s [flags]%s", c.name, c.args)
}

// AppContext exposes lazily initialised configuration and logging facilities.
type AppContext struct {
	Config config.Config
	Logger *slog.Logger
}

// RootCommand dispatches to subcommands in registration order.
type RootCommand struct {
	commands map[string]command
	order    []string
	stdout   io.Writer
	stderr   io.Writer
	appCtx   *AppContext

	configPath string
	logLevel   string
	logFormat  string
}

// lookupEnv is swapped in tests.
var lookupEnv = os.LookupEnv

// NewRootCommand constructs the CLI dispatcher with the record, replay and inspection subcommands.
func NewRootCommand() *RootCommand {
	rc := &RootCommand{
		commands: make(map[string]command),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}

	rc.register(newRecordCommand())
	rc.register(newReplayCommand())
	rc.register(newListCommand())
	rc.register(newInspectCommand())
	rc.register(newWindowsCommand())
	rc.register(newDoctorCommand())
	rc.register(newVersionCommand())

	return rc
}

func (rc *RootCommand) register(cmd command) {
	if _, dup := rc.commands[cmd.name]; !dup {
		rc.order = append(rc.order, cmd.name)
	}
	rc.commands[cmd.name] = cmd
}

func (rc *RootCommand) globalFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("actionrec", flag.ContinueOnError)
	fs.SetOutput(rc.stderr)
	fs.StringVar(&rc.configPath, "config", "", "Path to config file (default: $"+ConfigEnv+", then ./"+config.DefaultFileName+" if present)")
	fs.StringVar(&rc.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	fs.StringVar(&rc.logFormat, "log-format", "", "Override log output format (json, console)")
	return fs
}

// Execute parses global flags and dispatches to a subcommand. "help <command>"
// prints that command's usage.
func (rc *RootCommand) Execute(args []string) error {
	rootFlags := rc.globalFlags()
	rootFlags.Usage = func() { rc.printHelp(rootFlags) }

	if err := rootFlags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	remaining := rootFlags.Args()
	if len(remaining) == 0 {
		rc.printHelp(rootFlags)
		return nil
	}

	name := remaining[0]
	if name == "help" {
		if len(remaining) < 2 {
			rc.printHelp(rootFlags)
			return nil
		}
		name = remaining[1]
		sub, ok := rc.commands[name]
		if !ok {
			return rc.unknownCommand(name, rootFlags)
		}
		rc.subcommandFlags(sub).Usage()
		return nil
	}

	sub, ok := rc.commands[name]
	if !ok {
		return rc.unknownCommand(name, rootFlags)
	}

	fs := rc.subcommandFlags(sub)
	if err := fs.Parse(remaining[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	var ctx *AppContext
	if !sub.skipInit {
		var err error
		if ctx, err = rc.ensureAppContext(); err != nil {
			return err
		}
	}

	return sub.run(fs, fs.Args(), ctx, rc.stdout, rc.stderr)
}

func (rc *RootCommand) subcommandFlags(sub command) *flag.FlagSet {
	fs := flag.NewFlagSet(sub.name, flag.ContinueOnError)
	fs.SetOutput(rc.stderr)
	if sub.configure != nil {
		sub.configure(fs)
	}
	fs.Usage = func() {
		fmt.Fprintf(rc.stdout, "Usage: actionrec %s\n", sub.usage())
		if sub.description != "" {
			fmt.Fprintln(rc.stdout, sub.description)
		}
		fs.SetOutput(rc.stdout)
		fs.PrintDefaults()
		fs.SetOutput(rc.stderr)
	}
	return fs
}

func (rc *RootCommand) unknownCommand(name string, rootFlags *flag.FlagSet) error {
	fmt.Fprintf(rc.stderr, "Unknown command %q\n", name)
	if similar := rc.similarCommands(name); len(similar) > 0 {
		fmt.Fprintf(rc.stderr, "Did you mean: %s?\n", strings.Join(similar, ", "))
	}
	fmt.Fprintln(rc.stderr)
	rc.printHelp(rootFlags)
	return fmt.Errorf("unknown command %q", name)
}

// similarCommands returns registered names sharing a prefix with name.
func (rc *RootCommand) similarCommands(name string) []string {
	name = strings.ToLower(name)
	if len(name) < 2 {
		return nil
	}
	var out []string
	for _, candidate := range rc.order {
		if strings.HasPrefix(candidate, name) || strings.HasPrefix(name, candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

func (rc *RootCommand) ensureAppContext() (*AppContext, error) {
	if rc.appCtx != nil {
		return rc.appCtx, nil
	}

	path := rc.configPath
	if path == "" {
		if value, ok := lookupEnv(ConfigEnv); ok {
			path = strings.TrimSpace(value)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if rc.logLevel != "" {
		lvl, err := config.NormalizeLogLevel(rc.logLevel)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Level = lvl
	}
	if rc.logFormat != "" {
		format, err := config.NormalizeFormat(rc.logFormat)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Format = format
	}

	logger, err := logging.New(logging.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    rc.stderr,
		Component: "cli",
	})
	if err != nil {
		return nil, err
	}

	logger.Info("configuration loaded", "source", cfg.Source, "recordings_dir", cfg.Paths.RecordingsDir, "log_level", cfg.Logging.Level)

	rc.appCtx = &AppContext{Config: cfg, Logger: logger}
	return rc.appCtx, nil
}

func (rc *RootCommand) printHelp(rootFlags *flag.FlagSet) {
	fmt.Fprintf(rc.stdout, "actionrec - keyboard and mouse recorder\nVersion: %s\n\n", versionString())
	fmt.Fprintln(rc.stdout, "Usage: actionrec [global flags] <command> [command flags] [args]")
	fmt.Fprintln(rc.stdout, "Global flags:")
	rootFlags.SetOutput(rc.stdout)
	rootFlags.PrintDefaults()
	rootFlags.SetOutput(rc.stderr)
	fmt.Fprintln(rc.stdout)
	fmt.Fprintln(rc.stdout, "Commands:")

	width := 0
	for _, name := range rc.order {
		if n := len(rc.commands[name].usage()); n > width {
			width = n
		}
	}
	for _, name := range rc.order {
		sub := rc.commands[name]
		fmt.Fprintf(rc.stdout, "  %-*s  %s\n", width, sub.usage(), sub.description)
	}
	fmt.Fprintln(rc.stdout)
	fmt.Fprintln(rc.stdout, "Run 'actionrec help <command>' for command flags.")
}

func versionString() string {
	info := buildinfo.Read()
	if info.Commit != "" {
		return fmt.Sprintf("%s+%s (%s/%s)", info.Version, info.Commit, runtimeVersion(), runtimeGOOS())
	}
	return fmt.Sprintf("%s (%s/%s)", info.Version, runtimeVersion(), runtimeGOOS())
}

// runtimeVersion is extracted for testability.
var runtimeVersion = func() string { return runtime.Version() }

// runtimeGOOS is extracted for testability.
var runtimeGOOS = func() string { return runtime.GOOS }
