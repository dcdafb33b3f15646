package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sdncli-go/internal/cli/repl"
)

// ShellCommand starts an interactive shell. Every line runs as one sdncli
// invocation sharing this invocation's connection, so the auth token is
// fetched once.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive shell",
		Action: func(c *cli.Context) error {
			rt, err := runtimeFrom(c)
			if err != nil {
				return err
			}
			sh := repl.NewShell("sdncli> ",
				repl.NewCompleter(completionWords(c.App.Commands)),
				repl.NewHistory(),
				rt.shellExecutor(c),
				c.App.ErrWriter,
			)
			return sh.Run(c.Context)
		},
	}
}

// shellExecutor runs one shell line as a nested application.
func (rt *Runtime) shellExecutor(c *cli.Context) repl.Executor {
	return func(ctx context.Context, args []string) error {
		app := App(rt.Config, rt.ConfigPath)
		app.Metadata[runtimeKey] = rt.borrow()
		app.Reader = c.App.Reader
		app.Writer = c.App.Writer
		app.ErrWriter = c.App.ErrWriter
		app.ExitErrHandler = func(*cli.Context, error) {}

		argv := append([]string{c.App.Name}, shellGlobals(c)...)
		return app.RunContext(ctx, append(argv, args...))
	}
}

// shellGlobals carries explicitly set global flags into shell lines.
func shellGlobals(c *cli.Context) []string {
	var out []string
	for _, name := range []string{"output", "choose"} {
		if c.IsSet(name) {
			out = append(out, "--"+name, c.String(name))
		}
	}
	if c.Bool("no-timing") {
		out = append(out, "--no-timing")
	}
	return out
}

// completionWords lists "cmd" and "cmd sub" for every command.
func completionWords(cmds []*cli.Command) []string {
	var words []string
	for _, cmd := range cmds {
		if cmd.Hidden {
			continue
		}
		words = append(words, cmd.Name)
		for _, sub := range cmd.Subcommands {
			words = append(words, cmd.Name+" "+sub.Name)
		}
	}
	return words
}
