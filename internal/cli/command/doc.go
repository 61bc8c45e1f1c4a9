// Package command defines the timi-cli commands using urfave/cli/v2:
//
//   - root.go: App, global flags, runtime lifecycle
//   - runtime.go: wiring of config, logger, store, controller and services
//   - auth.go: login, register, logout, whoami
//   - view.go: open and view rendering shared with the shell
//   - tasks.go: tasks list/add
//   - config.go: config show
//   - shell.go: interactive shell
//
// Commands parse flags, call a service, and print through output.Printer.
package command
