package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sdncli-go/internal/cli/config"
	"github.com/yndnr/sdncli-go/internal/cli/connection"
	"github.com/yndnr/sdncli-go/internal/cli/output"
	"github.com/yndnr/sdncli-go/internal/core/domain"
	"github.com/yndnr/sdncli-go/internal/core/service"
	"github.com/yndnr/sdncli-go/internal/infra/buildinfo"
	"github.com/yndnr/sdncli-go/internal/infra/shutdown"
	"github.com/yndnr/sdncli-go/internal/telemetry/logger"
	"github.com/yndnr/sdncli-go/internal/telemetry/metric"
)

const (
	runtimeKey  = "sdncli.runtime"
	shutdownKey = "sdncli.shutdown"
)

// Runtime is the state shared by the commands of one invocation.
type Runtime struct {
	Config     *config.CLIConfig
	ConfigPath string
	Registry   *domain.Registry
	Conn       *connection.Manager
	Metrics    *metric.Registry
	Log        logger.Logger

	// shared marks a runtime borrowed by a shell line; its owner flushes it.
	shared    bool
	exitHooks []func(context.Context) error
}

// App creates the CLI application for cfg, loaded from configPath ("" when
// the defaults are in use). Resource commands come from the registry; an
// invalid registry leaves only the builtins so that "config validate" can
// still explain the problem.
func App(cfg *config.CLIConfig, configPath string) *cli.App {
	reg, regErr := cfg.Registry()

	var commands []*cli.Command
	if regErr == nil {
		commands = append(commands, resourceCommands(reg)...)
	}
	commands = append(commands,
		TokenCommand(),
		RequestCommand(),
		CacheCommand(),
		DecodeCommand(),
		TimestampCommand(),
		ResourcesCommand(),
		ConfigCommand(),
		ShellCommand(),
		VersionCommand(),
	)

	return &cli.App{
		Name:                      "sdncli",
		Usage:                     "SDN controller command-line client",
		Version:                   buildinfo.String(),
		Flags:                     globalFlags(cfg),
		Commands:                  commands,
		DisableSliceFlagSeparator: true,
		EnableBashCompletion:      true,
		Metadata:                  map[string]any{},
		Before: func(c *cli.Context) error {
			return setup(c, cfg, configPath, reg, regErr)
		},
		After: teardown,
	}
}

// WithShutdown lets the application register its cleanup on h instead of
// running it when the command returns.
func WithShutdown(app *cli.App, h *shutdown.Handler) *cli.App {
	app.Metadata[shutdownKey] = h
	return app
}

// globalFlags returns the global CLI flags. Defaults come from cfg.
func globalFlags(cfg *config.CLIConfig) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (TOML or YAML)",
			EnvVars: []string{config.EnvConfigPath},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml, text",
			Value:   cfg.Output.Format,
		},
		&cli.StringFlag{
			Name:    "choose",
			Usage:   "How to pick among resources sharing a name: prompt, fail, latest",
			EnvVars: []string{"SDNCLI_CHOOSE"},
			Value:   cfg.Output.Choose,
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "API port override",
		},
		&cli.Float64Flag{
			Name:  "rate",
			Usage: "Maximum requests per second, 0 for unlimited",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "HTTP timeout, overrides api.timeout (0 disables)",
		},
		&cli.BoolFlag{
			Name:    "no-reauth",
			Usage:   "Fail on a 401 instead of fetching a new token and resending once",
			EnvVars: []string{"SDNCLI_NO_REAUTH"},
		},
		&cli.BoolFlag{
			Name:  "no-timing",
			Usage: "Suppress the per-request timing and API IP lines",
		},
		&cli.StringFlag{
			Name:    "metrics-file",
			Usage:   "Write Prometheus metrics of this invocation to a textfile",
			EnvVars: []string{"SDNCLI_METRICS_FILE"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: trace, debug, info, warn, error, off",
			EnvVars: []string{"SDNCLI_LOG_LEVEL"},
			Value:   "warn",
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format: text, json",
			EnvVars: []string{"SDNCLI_LOG_FORMAT"},
			Value:   "text",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// ConfigFlagValue scans raw arguments for --config/-c, ahead of flag
// parsing, because the config decides which commands exist.
func ConfigFlagValue(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		for _, name := range []string{"--config", "-config", "-c", "--c"} {
			if a == name && i+1 < len(args) {
				return args[i+1]
			}
			if v, ok := strings.CutPrefix(a, name+"="); ok {
				return v
			}
		}
	}
	return ""
}

func setup(c *cli.Context, cfg *config.CLIConfig, configPath string, reg *domain.Registry, regErr error) error {
	if _, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return nil
	}

	level := c.String("log-level")
	if c.Bool("verbose") {
		level = "debug"
	}
	log, err := logger.New(logger.Config{
		Level:  level,
		Format: c.String("log-format"),
		Output: c.App.ErrWriter,
		Name:   "sdncli",
	})
	if err != nil {
		return err
	}
	logger.SetDefault(log)
	if regErr != nil {
		log.Warn("resource registry is invalid, resource commands disabled", "error", regErr)
	}

	ctx := logger.WithInvocationID(logger.WithLogger(c.Context, log), "")
	c.Context = ctx
	log = logger.L(ctx)

	metrics := metric.NewRegistry()
	settings := connection.Settings{
		Port:     c.Int("port"),
		Rate:     c.Float64("rate"),
		NoReauth: c.Bool("no-reauth"),
		Observer: metrics,
		Logger:   log,
		BeforeConnect: func(cfg *config.CLIConfig) error {
			return cfg.EnsurePassword(os.Stdin, c.App.ErrWriter)
		},
	}
	if c.IsSet("timeout") {
		d := c.Duration("timeout")
		settings.Timeout = &d
	}
	if !c.Bool("no-timing") {
		settings.Timing = c.App.ErrWriter
	}

	rt := &Runtime{
		Config:     cfg,
		ConfigPath: configPath,
		Registry:   reg,
		Conn:       connection.NewManager(cfg, settings),
		Metrics:    metrics,
		Log:        log,
	}
	rt.onExit(c, func(context.Context) error {
		rt.Conn.Disconnect()
		return nil
	})
	if path := c.String("metrics-file"); path != "" {
		rt.onExit(c, func(context.Context) error {
			return rt.Metrics.WriteTextfile(path)
		})
	}
	c.App.Metadata[runtimeKey] = rt

	log.Debug("invocation started", "version", buildinfo.Version, "config", configPath, "args", c.Args().Slice())
	return nil
}

func teardown(c *cli.Context) error {
	rt, ok := c.App.Metadata[runtimeKey].(*Runtime)
	if !ok || rt.shared {
		return nil
	}
	var firstErr error
	for i := len(rt.exitHooks) - 1; i >= 0; i-- {
		if err := rt.exitHooks[i](c.Context); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	rt.exitHooks = nil
	return firstErr
}

// onExit runs fn on shutdown when a handler is installed, else in After.
func (rt *Runtime) onExit(c *cli.Context, fn func(context.Context) error) {
	if h, ok := c.App.Metadata[shutdownKey].(*shutdown.Handler); ok {
		h.OnShutdown(fn)
		return
	}
	rt.exitHooks = append(rt.exitHooks, fn)
}

// runtimeFrom retrieves the invocation runtime from the context.
func runtimeFrom(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt, nil
	}
	return nil, fmt.Errorf("command runtime not initialized")
}

// borrow returns a copy of rt for a nested application run.
func (rt *Runtime) borrow() *Runtime {
	inner := *rt
	inner.shared = true
	inner.exitHooks = nil
	return &inner
}

// renderer builds a renderer for the command's output. An explicit
// --output wins; otherwise fallback, or the configured format when
// fallback is empty.
func (rt *Runtime) renderer(c *cli.Context, fallback output.Format) (*output.Renderer, error) {
	name := rt.Config.Output.Format
	if fallback != "" {
		name = string(fallback)
	}
	if c.IsSet("output") {
		name = c.String("output")
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.NewRenderer(c.App.Writer, format), nil
}

// executor wires resolver, chooser and renderer around the HTTP client.
func (rt *Runtime) executor(c *cli.Context) (*service.Executor, error) {
	client, err := rt.Conn.Client()
	if err != nil {
		return nil, err
	}
	chooser, err := service.NewChooser(c.String("choose"), c.App.Reader, c.App.ErrWriter)
	if err != nil {
		return nil, err
	}
	renderer, err := rt.renderer(c, "")
	if err != nil {
		return nil, err
	}

	caller := rt.Config.Caller()
	resolver := service.NewNameResolver(client, chooser).
		SetCaller(caller).
		SetObserver(rt.Metrics).
		SetLogger(rt.Log)
	return service.NewExecutor(client, resolver, renderer).
		SetCaller(caller).
		SetLogger(rt.Log), nil
}

// printAPIHost reports which controller answered, on stderr.
func (rt *Runtime) printAPIHost(c *cli.Context) {
	if c.Bool("no-timing") {
		return
	}
	fmt.Fprintf(c.App.ErrWriter, "API IP: %s\n", rt.Config.APIHost())
}
