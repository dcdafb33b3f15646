package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sdncli-go/internal/cli/output"
	"github.com/yndnr/sdncli-go/internal/core/domain"
	"github.com/yndnr/sdncli-go/internal/core/service"
)

// resourceCommands returns one command per registry endpoint.
func resourceCommands(reg *domain.Registry) []*cli.Command {
	eps := reg.Endpoints()
	cmds := make([]*cli.Command, 0, len(eps))
	for _, ep := range eps {
		cmds = append(cmds, ResourceCommand(ep))
	}
	return cmds
}

// ResourceCommand returns the verb group of one endpoint.
func ResourceCommand(ep domain.Endpoint) *cli.Command {
	return &cli.Command{
		Name:        ep.Command,
		Usage:       fmt.Sprintf("Manage %s (%s)", ep.Type, ep.URI),
		Category:    "Resources",
		Description: attributeHelp(ep),
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a " + ep.Type,
				ArgsUsage: "[--attr KEY=VALUE]... NAME",
				Flags:     withParents(ep, attrFlag(false)),
				Action:    resourceAction(ep, domain.OpCreate),
			},
			{
				Name:      "update",
				Usage:     "Update " + ep.Type + " resources",
				ArgsUsage: "--attr KEY=VALUE... NAME|ID[,NAME|ID]...",
				Flags:     withParents(ep, attrFlag(true)),
				Action:    resourceAction(ep, domain.OpUpdate),
			},
			{
				Name:      "delete",
				Usage:     "Delete " + ep.Type + " resources",
				ArgsUsage: "NAME|ID[,NAME|ID]...",
				Flags:     withParents(ep),
				Action:    resourceAction(ep, domain.OpDelete),
			},
			{
				Name:      "show",
				Usage:     "Show " + ep.Type + " resources",
				ArgsUsage: "[--field F,...] NAME|ID[,NAME|ID]...",
				Flags:     withParents(ep, fieldFlag()),
				Action:    resourceAction(ep, domain.OpRead),
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List " + ep.Type + " resources",
				Flags: withParents(ep, fieldFlag(), &cli.StringFlag{
					Name:  "filter",
					Usage: `Filter as JSON, e.g. '{"name":"net1"}'`,
				}),
				Action: resourceAction(ep, domain.OpReadAll),
			},
			{
				Name:  "oper",
				Usage: "Run a custom operation on a " + ep.Type,
				Flags: withParents(ep,
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "ID or name of the resource", Required: true},
					&cli.StringFlag{Name: "cmd", Usage: "Operation string, see the controller API", Required: true},
					attrFlag(false),
					fieldFlag(),
				),
				Action: resourceAction(ep, ""),
			},
		},
	}
}

func attrFlag(required bool) cli.Flag {
	return &cli.StringSliceFlag{
		Name:     "attr",
		Aliases:  []string{"a"},
		Usage:    `Attribute KEY=<json>, repeatable. Example: -a binding:vif_details='{"port_filter":true}'`,
		Required: required,
	}
}

func fieldFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "field",
		Aliases: []string{"f"},
		Usage:   "Fields to return, comma separated or repeated",
	}
}

// withParents prepends one required flag per URI placeholder.
func withParents(ep domain.Endpoint, flags ...cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, p := range ep.Parents() {
		out = append(out, &cli.StringFlag{
			Name:     p.Name,
			Usage:    fmt.Sprintf("ID or name of the %s (looked up in %s)", p.Name, p.URI),
			Required: true,
		})
	}
	return append(out, flags...)
}

// attributeHelp lists the configured attribute hints of ep.
func attributeHelp(ep domain.Endpoint) string {
	if len(ep.Attributes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Common attributes:\n")
	for _, a := range ep.Attributes {
		fmt.Fprintf(&b, "   -a %s=%s\n", a.Key, hintValue(a.Value))
	}
	return strings.TrimRight(b.String(), "\n")
}

func hintValue(v any) string {
	switch v.(type) {
	case []any, map[string]any:
		return "'" + output.Cell(v) + "'"
	}
	return output.Cell(v)
}

func resourceAction(ep domain.Endpoint, op domain.Operation) cli.ActionFunc {
	return func(c *cli.Context) error {
		inv, err := buildInvocation(c, ep, op)
		if err != nil {
			return err
		}

		rt, err := runtimeFrom(c)
		if err != nil {
			return err
		}
		exec, err := rt.executor(c)
		if err != nil {
			return err
		}
		if err := exec.Execute(c.Context, inv); err != nil {
			return err
		}
		rt.printAPIHost(c)
		return nil
	}
}

// buildInvocation turns the verb's flags and arguments into an
// Invocation. An empty op means "oper", whose verb comes from --cmd.
func buildInvocation(c *cli.Context, ep domain.Endpoint, op domain.Operation) (service.Invocation, error) {
	inv := service.Invocation{
		Endpoint:  ep,
		Operation: op,
		Parents:   make(map[string]string),
	}
	for _, p := range ep.Parents() {
		inv.Parents[p.Name] = c.String(p.Name)
	}

	var err error
	if c.IsSet("attr") {
		if inv.Attributes, err = ParseAttributes(c.StringSlice("attr")); err != nil {
			return inv, err
		}
	}
	if c.IsSet("field") {
		inv.Fields = splitList(c.StringSlice("field"))
	}

	names := splitList(c.Args().Slice())
	switch op {
	case "":
		inv.Operation = domain.ParseOperation(c.String("cmd"))
		if inv.Operation == "" {
			return inv, domain.ErrInvalidArgument.WithDetails("oper needs a non-empty --cmd")
		}
		inv.Names = []string{c.String("name")}
	case domain.OpCreate:
		if len(names) != 1 {
			return inv, domain.ErrInvalidArgument.WithDetailsf("%s create takes exactly one NAME, got %d", ep.Command, len(names))
		}
		inv.Names = names
	case domain.OpReadAll:
		if len(names) > 0 {
			return inv, domain.ErrInvalidArgument.WithDetailsf("%s list takes no arguments; use --filter", ep.Command)
		}
		if f := c.String("filter"); f != "" {
			if inv.Filters, err = ParseFilter(f); err != nil {
				return inv, err
			}
		}
	default:
		if len(names) == 0 {
			return inv, domain.ErrInvalidArgument.WithDetailsf("%s %s needs at least one NAME or ID", ep.Command, c.Command.Name)
		}
		inv.Names = names
	}
	return inv, nil
}
