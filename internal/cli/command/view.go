package command

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/timi-go/internal/cli/output"
	"github.com/yndnr/timi-go/internal/core/domain"
)

// OpenCommand returns the open command.
func OpenCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Show a view, following the route guard",
		ArgsUsage: "ROUTE",
		Action:    open,
	}
}

func open(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: timi-cli open ROUTE", 2)
	}
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	ctx := rt.Context(c.Context)
	controller, err := rt.Session(ctx)
	if err != nil {
		return err
	}

	d := rt.Guard.Evaluate(controller.State(), c.Args().First())
	rt.Metrics.ObserveDecision(d.Action.String(), d.Reason)

	p, err := printer(c, rt)
	if err != nil {
		return err
	}
	if p.Format() != output.FormatTable {
		return p.Print(d)
	}
	if d.IsRedirect() {
		fmt.Fprintf(rt.Stdout, "-> %s (%s)\n", d.Route, d.Reason)
	}
	return newViewRenderer(rt, rt.Stdout).Render(ctx, d.Route)
}

// viewRenderer prints the content of a view. The route has already passed
// the guard.
type viewRenderer struct {
	rt  *Runtime
	out io.Writer
}

func newViewRenderer(rt *Runtime, out io.Writer) *viewRenderer {
	return &viewRenderer{rt: rt, out: out}
}

// Render implements repl.Renderer.
func (v *viewRenderer) Render(ctx context.Context, route string) error {
	routes := v.rt.Guard.Routes()
	switch route {
	case routes.Login:
		return v.renderLogin(ctx)
	case routes.Register:
		fmt.Fprintln(v.out, "Create an account:")
		fmt.Fprintln(v.out, "  register --email EMAIL --password PASSWORD [--name NAME]")
		return nil
	case routes.Landing:
		return v.renderDashboard(ctx)
	default:
		return v.renderProtected(ctx, route)
	}
}

func (v *viewRenderer) renderLogin(ctx context.Context) error {
	fmt.Fprintln(v.out, "Sign in:")
	auth, err := v.rt.Auth(ctx)
	if err != nil {
		return err
	}
	if email := auth.RememberedEmail(ctx); email != "" {
		fmt.Fprintf(v.out, "  login --password PASSWORD        (as %s)\n", email)
		return nil
	}
	fmt.Fprintln(v.out, "  login --email EMAIL --password PASSWORD [--remember]")
	return nil
}

func (v *viewRenderer) renderDashboard(ctx context.Context) error {
	user, err := v.currentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(v.out, "[%s] Welcome, %s\n", user.Initials(), user.DisplayName())

	tasks, err := v.rt.Tasks(ctx)
	if err != nil {
		return err
	}
	list, err := tasks.List(ctx)
	if err != nil {
		return err
	}

	s := domain.Summarize(list)
	fmt.Fprintf(v.out, "%d tasks, %d done, %d pending\n", s.Total, s.Completed, s.Pending)
	if len(list) == 0 {
		return nil
	}
	return (&output.TableFormatter{}).Format(v.out, list)
}

func (v *viewRenderer) renderProtected(ctx context.Context, route string) error {
	user, err := v.currentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(v.out, "%s (signed in as %s)\n", route, user.DisplayName())
	return nil
}

func (v *viewRenderer) currentUser(ctx context.Context) (*domain.UserProfile, error) {
	controller, err := v.rt.Session(ctx)
	if err != nil {
		return nil, err
	}
	state := controller.State()
	if !state.LoggedIn || state.User == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return state.User, nil
}
