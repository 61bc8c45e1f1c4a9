package command

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/timi-go/internal/cli/output"
	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/core/service"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email (defaults to the remembered one)",
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Account password",
				EnvVars:  []string{"TIMI_PASSWORD"},
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "remember",
				Usage: "Remember the email for next time",
			},
		},
		Action: login,
	}
}

// RegisterCommand returns the register command.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Account password (at least 6 characters)",
				EnvVars:  []string{"TIMI_PASSWORD"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Display name",
			},
		},
		Action: register,
	}
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and forget the saved session",
		Action: logout,
	}
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the current session",
		Action: whoami,
	}
}

func login(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	ctx := rt.Context(c.Context)
	auth, err := rt.Auth(ctx)
	if err != nil {
		return err
	}

	email := c.String("email")
	if email == "" {
		email = auth.RememberedEmail(ctx)
	}

	state, err := auth.Login(ctx, &service.LoginRequest{
		Email:    email,
		Password: c.String("password"),
		Remember: c.Bool("remember"),
	})
	if err != nil {
		return err
	}
	return printSession(c, rt, state, "Signed in as %s.")
}

func register(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	ctx := rt.Context(c.Context)
	auth, err := rt.Auth(ctx)
	if err != nil {
		return err
	}

	state, err := auth.Register(ctx, &service.RegisterRequest{
		Email:    c.String("email"),
		Password: c.String("password"),
		Name:     c.String("name"),
	})
	if err != nil {
		return err
	}
	return printSession(c, rt, state, "Account created. Signed in as %s.")
}

func logout(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	ctx := rt.Context(c.Context)
	auth, err := rt.Auth(ctx)
	if err != nil {
		return err
	}

	if err := auth.Logout(ctx); err != nil {
		return err
	}
	p, err := printer(c, rt)
	if err != nil {
		return err
	}
	p.Message("Signed out.")
	if p.Format() != output.FormatTable {
		return p.Print(newSessionView(domain.Anonymous(), time.Time{}, false))
	}
	return nil
}

func whoami(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	controller, err := rt.Session(rt.Context(c.Context))
	if err != nil {
		return err
	}

	p, err := printer(c, rt)
	if err != nil {
		return err
	}
	state := controller.State()
	expiresAt, expired := rt.bearerExpiry(controller)
	return p.Print(newSessionView(state, expiresAt, expired))
}

func printSession(c *cli.Context, rt *Runtime, state domain.SessionState, msg string) error {
	p, err := printer(c, rt)
	if err != nil {
		return err
	}
	if p.Format() == output.FormatTable {
		p.Message(msg, state.User.DisplayName())
		return nil
	}
	controller, err := rt.Session(c.Context)
	if err != nil {
		return err
	}
	expiresAt, expired := rt.bearerExpiry(controller)
	return p.Print(newSessionView(state, expiresAt, expired))
}

// sessionView is the printable form of a session.
type sessionView struct {
	State       string     `json:"state" yaml:"state"`
	Email       string     `json:"email,omitempty" yaml:"email,omitempty"`
	Name        string     `json:"name,omitempty" yaml:"name,omitempty"`
	DisplayName string     `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Initials    string     `json:"initials,omitempty" yaml:"initials,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expired     bool       `json:"expired,omitempty" yaml:"expired,omitempty"`
}

func newSessionView(state domain.SessionState, expiresAt time.Time, expired bool) sessionView {
	v := sessionView{State: state.Name()}
	if state.LoggedIn && state.User != nil {
		v.Email = state.User.Email
		v.Name = state.User.Name
		v.DisplayName = state.User.DisplayName()
		v.Initials = state.User.Initials()
	}
	if !expiresAt.IsZero() {
		v.ExpiresAt = &expiresAt
		v.Expired = expired
	}
	return v
}

// Table implements output.Tabler.
func (v sessionView) Table() *output.Table {
	t := output.NewTable("FIELD", "VALUE").AddRow("state", v.State)
	if v.State != "authenticated" {
		return t
	}
	t.AddRow("email", v.Email)
	t.AddRow("display name", v.DisplayName)
	t.AddRow("initials", v.Initials)
	if v.ExpiresAt != nil {
		exp := v.ExpiresAt.Local().Format(time.RFC3339)
		if v.Expired {
			exp += " (expired)"
		}
		t.AddRow("token expires", exp)
	}
	return t
}
