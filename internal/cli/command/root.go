package command

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/timi-go/internal/cli/config"
	"github.com/yndnr/timi-go/internal/cli/output"
	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/infra/buildinfo"
)

const runtimeKey = "runtime"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "timi-cli",
		Usage:    "Sign in to Timi and work with your tasks",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			LoginCommand(),
			RegisterCommand(),
			LogoutCommand(),
			WhoamiCommand(),
			OpenCommand(),
			TasksCommand(),
			ConfigCommand(),
			ShellCommand(),
		},
		Before: setupRuntime,
		After:  teardownRuntime,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default ~/.timi/config.yaml)",
			EnvVars: []string{"TIMI_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "api-url",
			Usage: "Backend base URL",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Directory of the local session store",
		},
		&cli.BoolFlag{
			Name:  "ephemeral",
			Usage: "Keep the session in memory only",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
		&cli.StringFlag{
			Name:    "metrics-file",
			Usage:   "Write Prometheus metrics to this file on exit",
			EnvVars: []string{"TIMI_METRICS_FILE"},
		},
	}
}

// GlobalFlags holds the parsed global flags.
type GlobalFlags struct {
	ConfigFile  string
	APIURL      string
	DataDir     string
	Ephemeral   bool
	Output      string
	LogLevel    string
	Verbose     bool
	MetricsFile string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		ConfigFile:  c.String("config"),
		APIURL:      c.String("api-url"),
		DataDir:     c.String("data-dir"),
		Ephemeral:   c.Bool("ephemeral"),
		Output:      c.String("output"),
		LogLevel:    c.String("log-level"),
		Verbose:     c.Bool("verbose"),
		MetricsFile: c.String("metrics-file"),
	}
}

// Apply overrides cfg with the flags that were given.
func (f *GlobalFlags) Apply(cfg *config.Config) {
	if f.APIURL != "" {
		cfg.API.URL = f.APIURL
	}
	if f.DataDir != "" {
		cfg.Storage.Dir = config.ExpandHome(f.DataDir)
	}
	if f.Ephemeral {
		cfg.Storage.Engine = "memory"
	}
	if f.Output != "" {
		cfg.Output = f.Output
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.Verbose {
		cfg.Log.Level = "debug"
	}
}

// setupRuntime builds the Runtime once. A nested run (a shell line) reuses
// the runtime already stored in Metadata.
func setupRuntime(c *cli.Context) error {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		rt.acquire()
		return nil
	}

	flags := ParseGlobalFlags(c)
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), 2)
	}
	flags.Apply(cfg)
	if err := cfg.Verify(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration:\n%v", err), 2)
	}

	configPath := flags.ConfigFile
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	rt, err := NewRuntime(cfg, Options{
		Stdout:      writerOr(c.App.Writer, os.Stdout),
		Stderr:      writerOr(c.App.ErrWriter, os.Stderr),
		ConfigPath:  configPath,
		MetricsFile: flags.MetricsFile,
	})
	if err != nil {
		return err
	}
	c.App.Metadata[runtimeKey] = rt
	return nil
}

func teardownRuntime(c *cli.Context) error {
	rt, ok := c.App.Metadata[runtimeKey].(*Runtime)
	if !ok {
		return nil
	}
	if !rt.release() {
		return nil
	}
	delete(c.App.Metadata, runtimeKey)
	return rt.Close(c.Context)
}

// GetRuntime retrieves the runtime from context.
func GetRuntime(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt, nil
	}
	return nil, errors.New("runtime not initialised")
}

// printer honours a per-command --output over the configured format.
func printer(c *cli.Context, rt *Runtime) (*output.Printer, error) {
	name := rt.Config.Output
	if c.IsSet("output") {
		name = c.String("output")
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(rt.Stdout, format), nil
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	var exitErr cli.ExitCoder
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.ExitCode()
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		return 2
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrNotAuthenticated),
		errors.Is(err, domain.ErrSessionExpired):
		return 3
	default:
		return 1
	}
}

// PrintError prints an error message to w.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}
