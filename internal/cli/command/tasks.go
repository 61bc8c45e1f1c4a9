package command

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/timi-go/internal/cli/output"
	"github.com/yndnr/timi-go/internal/core/service"
)

// TasksCommand returns the tasks subcommand group.
func TasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "Work with your tasks",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List tasks",
				Action:  tasksList,
			},
			{
				Name:      "add",
				Usage:     "Add a task",
				ArgsUsage: "TITLE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Task description",
					},
				},
				Action: tasksAdd,
			},
		},
	}
}

func tasksList(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	ctx := rt.Context(c.Context)
	tasks, err := rt.Tasks(ctx)
	if err != nil {
		return err
	}

	list, err := tasks.List(ctx)
	if err != nil {
		return err
	}

	p, err := printer(c, rt)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		p.Message("No tasks yet.")
		if p.Format() == output.FormatTable {
			return nil
		}
	}
	return p.Print(list)
}

func tasksAdd(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("usage: timi-cli tasks add TITLE [--description TEXT]", 2)
	}
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	ctx := rt.Context(c.Context)
	tasks, err := rt.Tasks(ctx)
	if err != nil {
		return err
	}

	task, err := tasks.Create(ctx, &service.CreateTaskRequest{
		Title:       strings.Join(c.Args().Slice(), " "),
		Description: c.String("description"),
	})
	if err != nil {
		return err
	}

	p, err := printer(c, rt)
	if err != nil {
		return err
	}
	p.Message("Added task %s.", task.ID)
	if p.Format() == output.FormatTable {
		return nil
	}
	return p.Print(task)
}
