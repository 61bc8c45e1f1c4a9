package command

import (
	"context"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/timi-go/internal/cli/config"
	"github.com/yndnr/timi-go/internal/cli/repl"
	"github.com/yndnr/timi-go/internal/infra/confloader"
	"github.com/yndnr/timi-go/internal/infra/shutdown"
	"github.com/yndnr/timi-go/internal/storage"
	"github.com/yndnr/timi-go/internal/telemetry/logger"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:   "shell",
		Usage:  "Start the interactive shell",
		Action: shell,
	}
}

func shell(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	ctx, stop := shutdown.WithSignals(rt.Context(c.Context))
	defer stop()

	controller, err := rt.Session(ctx)
	if err != nil {
		return err
	}

	rt.watchConfig()

	nav := repl.NewNavigator(rt.Guard, controller, rt.Metrics)
	r := repl.New(repl.Config{
		Input:    os.Stdin,
		Output:   rt.Stdout,
		Executor: shellExecutor(rt),
		Renderer: newViewRenderer(rt, rt.Stdout),
		Commands: commandWords(App()),
		History:  repl.NewHistory(rt.historyPath(), repl.DefaultHistorySize),
		Logger:   rt.Logger,
	}, nav)
	return r.Run(ctx)
}

// shellExecutor runs a line through a fresh App sharing rt. Exit errors are
// printed by the shell instead of terminating the process.
func shellExecutor(rt *Runtime) repl.Executor {
	return repl.ExecutorFunc(func(ctx context.Context, args []string) error {
		app := App()
		app.Writer = rt.Stdout
		app.ErrWriter = rt.Stderr
		app.Metadata[runtimeKey] = rt
		app.ExitErrHandler = func(*cli.Context, error) {}
		return app.RunContext(ctx, append([]string{app.Name}, args...))
	})
}

// commandWords lists "cmd" and "cmd sub" for every visible command.
func commandWords(app *cli.App) []string {
	var words []string
	for _, cmd := range app.Commands {
		if cmd.Hidden || cmd.Name == "shell" {
			continue
		}
		words = append(words, cmd.Name)
		for _, sub := range cmd.Subcommands {
			words = append(words, cmd.Name+" "+sub.Name)
		}
	}
	return words
}

// historyPath keeps shell history beside the store, or in memory when the
// store is ephemeral.
func (rt *Runtime) historyPath() string {
	if rt.Config.Storage.Engine == storage.EngineMemory || rt.Config.Storage.Dir == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(rt.Config.Storage.Dir), repl.HistoryFile)
}

// watchConfig applies log.level edits to the config file while the shell
// runs. Failures only disable the reload.
func (rt *Runtime) watchConfig() {
	if rt.configPath == "" {
		return
	}
	if _, err := os.Stat(rt.configPath); err != nil {
		return
	}

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(logger.Slog(rt.Logger)))
	if err != nil {
		rt.Logger.Debug("config watcher unavailable", "error", err)
		return
	}
	if err := w.Watch(rt.configPath); err != nil {
		_ = w.Stop()
		return
	}

	w.OnChange(func(path string) {
		level, err := config.LoadLogLevel(path)
		if err != nil {
			rt.Logger.Warn("config reload failed", "path", path, "error", err)
			return
		}
		if !logger.ValidLevel(level) || level == logger.GetLevel() {
			return
		}
		logger.SetLevel(level)
		rt.Logger.Info("log level changed", "level", level)
	})
	w.StartAsync()
	rt.OnShutdown(func(context.Context) error {
		return w.Stop()
	})
}
