package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sdncli-go/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:     "config",
		Usage:    "Configuration management",
		Category: "Tools",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration, password masked",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate the effective configuration",
				Action: configValidate,
			},
			{
				Name:   "path",
				Usage:  "Show which config file is in use",
				Action: configPath,
			},
			{
				Name:      "init",
				Usage:     "Write a default config file",
				ArgsUsage: "[FILE]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
				Action: configInit,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	cfg := rt.Config.Sanitized()

	// TOML unless a structured format was asked for.
	if c.IsSet("output") {
		renderer, err := rt.renderer(c, "")
		if err != nil {
			return err
		}
		if renderer.Format != "table" && renderer.Format != "text" {
			return renderer.Render(cfg)
		}
	}

	data, err := cfg.TOML()
	if err != nil {
		return err
	}
	if rt.ConfigPath != "" {
		fmt.Fprintf(c.App.Writer, "# %s\n", rt.ConfigPath)
	} else {
		fmt.Fprintln(c.App.Writer, "# defaults (no config file found)")
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func configValidate(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	if err := rt.Config.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "✓ Configuration is valid (%d resources)\n", len(rt.Config.Resources))
	return nil
}

func configPath(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	if rt.ConfigPath == "" {
		fmt.Fprintf(c.App.Writer, "(no config file found, using defaults; create %s)\n", config.DefaultConfigPath())
		return nil
	}
	_, err = fmt.Fprintln(c.App.Writer, rt.ConfigPath)
	return err
}

func configInit(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := config.Save(config.Default(), path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	_, err := fmt.Fprintf(c.App.Writer, "✓ Wrote default configuration to %s\n", path)
	return err
}
