package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/telemetry/logger"
)

// Executor runs one CLI command line (without the program name).
type Executor interface {
	Execute(ctx context.Context, args []string) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, args []string) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, args []string) error {
	return f(ctx, args)
}

// Renderer shows the content of a view after navigation.
type Renderer interface {
	Render(ctx context.Context, route string) error
}

// Built-in shell words.
var builtins = []string{"back", "exit", "help", "history", "quit"}

// Config configures a REPL.
type Config struct {
	Input    io.Reader
	Output   io.Writer
	Executor Executor
	Renderer Renderer
	// Commands are offered by help and completion.
	Commands []string
	History  *History
	Logger   logger.Logger
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	exec      Executor
	renderer  Renderer
	nav       *Navigator
	history   *History
	completer *Completer
	commands  []string
	logger    logger.Logger
}

// New creates a REPL driving nav.
func New(cfg Config, nav *Navigator) *REPL {
	r := &REPL{
		input:    cfg.Input,
		output:   cfg.Output,
		exec:     cfg.Executor,
		renderer: cfg.Renderer,
		nav:      nav,
		history:  cfg.History,
		commands: cfg.Commands,
		logger:   cfg.Logger,
	}
	if r.history == nil {
		r.history = NewHistory("", 0)
	}
	if r.logger == nil {
		r.logger = logger.Nop()
	}
	r.completer = NewCompleter(cfg.Commands, builtins, nav.Routes())
	return r
}

// Prompt returns the prompt for the current view.
func (r *REPL) Prompt() string {
	return "timi:" + r.nav.Current() + "> "
}

// Run reads lines until exit, EOF or ctx cancellation. History is saved on
// return.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		r.logger.Warn("failed to load shell history", "error", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			r.logger.Warn("failed to save shell history", "error", err)
		}
	}()

	r.show(ctx, r.nav.Navigate(domain.RouteRoot))

	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		scanner := bufio.NewScanner(r.input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	for {
		fmt.Fprint(r.output, r.Prompt())

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.output)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.output)
				return <-readErr
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}
		r.history.Add(line)

		if done := r.handle(ctx, line); done {
			return nil
		}
	}
}

// handle processes one line and reports whether the shell should exit.
func (r *REPL) handle(ctx context.Context, line string) bool {
	args, err := SplitArgs(line)
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return false
	}

	switch {
	case strings.HasPrefix(line, "/"):
		r.show(ctx, r.nav.Navigate(args[0]))
	case args[0] == "exit" || args[0] == "quit":
		return true
	case args[0] == "help":
		r.help(args[1:])
	case args[0] == "history":
		for i, e := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, e)
		}
	case args[0] == "back":
		d, ok := r.nav.Back()
		if !ok {
			fmt.Fprintln(r.output, "Nothing to go back to.")
			return false
		}
		r.show(ctx, d)
	case args[0] == "open" && len(args) == 2:
		r.show(ctx, r.nav.Navigate(args[1]))
	case args[0] == "shell":
		fmt.Fprintln(r.output, "Already in the shell.")
	default:
		if err := r.exec.Execute(ctx, args); err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
		if d, changed := r.nav.Refresh(); changed {
			r.show(ctx, d)
		}
	}
	return false
}

// show announces a redirect and renders the resulting view.
func (r *REPL) show(ctx context.Context, d domain.Decision) {
	if d.IsRedirect() {
		fmt.Fprintf(r.output, "-> %s (%s)\n", d.Route, d.Reason)
	}
	if r.renderer == nil {
		return
	}
	if err := r.renderer.Render(ctx, d.Route); err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
	}
}

func (r *REPL) help(args []string) {
	if len(args) > 0 {
		for _, w := range r.completer.Complete(args[0]) {
			fmt.Fprintln(r.output, w)
		}
		return
	}

	fmt.Fprintln(r.output, "Commands:")
	for _, c := range r.commands {
		fmt.Fprintf(r.output, "  %s\n", c)
	}
	fmt.Fprintln(r.output, "Views:")
	for _, route := range r.nav.Routes() {
		fmt.Fprintf(r.output, "  %s\n", route)
	}
	fmt.Fprintln(r.output, "Shell:")
	fmt.Fprintln(r.output, "  /ROUTE     go to a view")
	fmt.Fprintln(r.output, "  back       previous view")
	fmt.Fprintln(r.output, "  history    list entered lines")
	fmt.Fprintln(r.output, "  help [P]   this text, or completions for prefix P")
	fmt.Fprintln(r.output, "  exit       leave the shell")
}

// ErrUnterminatedQuote is returned for a line with an open quote.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// SplitArgs splits a line on whitespace, honouring single and double quotes.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		started bool
	)
	for _, c := range line {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteRune(c)
			}
		case c == '"' || c == '\'':
			quote = c
			started = true
		case c == ' ' || c == '\t':
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(c)
			started = true
		}
	}
	if quote != 0 {
		return nil, ErrUnterminatedQuote
	}
	if started {
		args = append(args, cur.String())
	}
	if len(args) == 0 {
		return nil, errors.New("empty line")
	}
	return args, nil
}
