package command

import (
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/timi-go/internal/cli/config"
	"github.com/yndnr/timi-go/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration (secrets masked)",
				Action: configShow,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	p, err := printer(c, rt)
	if err != nil {
		return err
	}

	safe := rt.Config.Sanitize()
	if p.Format() == output.FormatTable {
		p.Message("# %s", rt.configPath)
		return p.Print(configTable(safe))
	}
	return p.Print(safe)
}

func configTable(cfg *config.Config) *output.Table {
	passphrase := cfg.Storage.Passphrase
	if passphrase == "" {
		passphrase = "-"
	}
	return output.NewTable("KEY", "VALUE").
		AddRow("api.url", cfg.API.URL).
		AddRow("api.timeout", cfg.API.Timeout.String()).
		AddRow("storage.engine", cfg.Storage.Engine).
		AddRow("storage.dir", cfg.Storage.Dir).
		AddRow("storage.passphrase", passphrase).
		AddRow("storage.gc_interval", cfg.Storage.GCInterval.String()).
		AddRow("routes.login", cfg.Routes.Login).
		AddRow("routes.register", cfg.Routes.Register).
		AddRow("routes.landing", cfg.Routes.Landing).
		AddRow("routes.protected", strings.Join(cfg.Routes.Protected, ",")).
		AddRow("auth.rate", strconv.Itoa(cfg.Auth.Rate)).
		AddRow("auth.burst", strconv.Itoa(cfg.Auth.Burst)).
		AddRow("log.level", cfg.Log.Level).
		AddRow("log.format", cfg.Log.Format).
		AddRow("output", cfg.Output)
}
