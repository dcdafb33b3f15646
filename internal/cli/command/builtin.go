package command

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zlib"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/sdncli-go/internal/cli/output"
	"github.com/yndnr/sdncli-go/internal/core/domain"
	"github.com/yndnr/sdncli-go/internal/infra/buildinfo"
)

// TokenCommand prints an auth token.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:     "token",
		Usage:    "Get an auth token",
		Category: "Tools",
		Action: func(c *cli.Context) error {
			rt, err := runtimeFrom(c)
			if err != nil {
				return err
			}
			session, err := rt.Conn.Session()
			if err != nil {
				return err
			}
			token, err := session.Token(c.Context)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, token)
			return err
		},
	}
}

// CacheCommand dumps the controller object cache.
func CacheCommand() *cli.Command {
	return &cli.Command{
		Name:     "cache",
		Usage:    "Show the controller object cache",
		Category: "Tools",
		Action: func(c *cli.Context) error {
			rt, err := runtimeFrom(c)
			if err != nil {
				return err
			}
			client, err := rt.Conn.Client()
			if err != nil {
				return err
			}
			renderer, err := rt.renderer(c, output.FormatJSON)
			if err != nil {
				return err
			}

			body, err := client.Dispatch(c.Context, "/obj-cache", map[string]any{"count": 999999})
			if err != nil {
				return err
			}
			if err := renderer.RenderBody(body, nil); err != nil {
				return err
			}
			rt.printAPIHost(c)
			return nil
		},
	}
}

// DecodeCommand pretty-prints a JSON string or a hex-encoded zlib payload.
func DecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Format a JSON string or a hex-encoded zlib payload",
		ArgsUsage: "TEXT",
		Category:  "Tools",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return domain.ErrInvalidArgument.WithDetails("decode takes exactly one TEXT argument")
			}
			raw, value, err := DecodePayload(c.Args().First())
			if err != nil {
				return err
			}
			if raw != "" {
				fmt.Fprintln(c.App.Writer, raw)
				fmt.Fprintln(c.App.Writer, strings.Repeat("=", 80))
			}
			return (&output.JSONFormatter{}).Format(c.App.Writer, value)
		},
	}
}

var (
	pyUnicodePrefix = regexp.MustCompile(`\bu'`)
	pyLongSuffix    = regexp.MustCompile(`(\d)L\b`)
	pyConstants     = strings.NewReplacer("True", "true", "False", "false", "None", "null")
)

// DecodePayload decodes text. Hex input is inflated with zlib and read as
// a Python literal (the form some controller components log); raw is then
// the inflated text. Anything else must be JSON.
func DecodePayload(text string) (raw string, value any, err error) {
	text = strings.TrimSpace(text)

	inflated, zErr := inflateHex(text)
	if zErr != nil {
		// Short JSON such as 12 or "" is also valid hex.
		value, err = decodeJSON(text)
		if err != nil {
			return "", nil, domain.ErrInvalidArgument.WithDetails("text is neither a hex zlib payload nor JSON").WithCause(zErr)
		}
		return "", value, nil
	}

	raw = string(inflated)
	value, err = decodeJSON(pythonToJSON(raw))
	if err != nil {
		return raw, nil, domain.ErrInvalidArgument.WithDetails("inflated payload is not a Python literal").WithCause(err)
	}
	return raw, value, nil
}

func inflateHex(text string) ([]byte, error) {
	compressed, err := hex.DecodeString(text)
	if err != nil {
		return nil, err
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// pythonToJSON rewrites a Python dict/list repr into JSON.
func pythonToJSON(s string) string {
	s = pyUnicodePrefix.ReplaceAllString(s, "'")
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "'", `"`)
	s = pyLongSuffix.ReplaceAllString(s, "$1")
	return pyConstants.Replace(s)
}

// TimestampCommand converts a unix timestamp to a UTC date.
func TimestampCommand() *cli.Command {
	return &cli.Command{
		Name:      "timestamp",
		Aliases:   []string{"ts"},
		Usage:     "Convert a unix timestamp in s, ms or µs to a UTC date",
		ArgsUsage: "TIMESTAMP",
		Category:  "Tools",
		Action: func(c *cli.Context) error {
			n, err := strconv.ParseInt(c.Args().First(), 10, 64)
			if err != nil {
				return domain.ErrInvalidArgument.WithDetailsf("timestamp %q is not an integer", c.Args().First())
			}
			_, err = fmt.Fprintln(c.App.Writer, ParseTimestamp(n).Format("2006-01-02T15:04:05.999999Z"))
			return err
		},
	}
}

// ParseTimestamp guesses the unit of n from its magnitude: below 10^10 it
// is seconds, below 10^13 milliseconds, else microseconds.
func ParseTimestamp(n int64) time.Time {
	const billion = 1_000_000_000
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch q := abs / billion; {
	case q <= 9:
		return time.Unix(n, 0).UTC()
	case q <= 9999:
		return time.UnixMilli(n).UTC()
	default:
		return time.UnixMicro(n).UTC()
	}
}

type resourceRow struct {
	Command string `json:"command"`
	Type    string `json:"type"`
	URI     string `json:"uri"`
	Parents string `json:"parents"`
}

// ResourcesCommand lists the resource registry.
func ResourcesCommand() *cli.Command {
	return &cli.Command{
		Name:     "resources",
		Usage:    "List the configured resource commands",
		Category: "Tools",
		Action: func(c *cli.Context) error {
			rt, err := runtimeFrom(c)
			if err != nil {
				return err
			}
			if rt.Registry == nil {
				return rt.Config.Validate()
			}
			renderer, err := rt.renderer(c, output.FormatTable)
			if err != nil {
				return err
			}

			rows := make([]resourceRow, 0, rt.Registry.Len())
			for _, ep := range rt.Registry.Endpoints() {
				var parents []string
				for _, p := range ep.Parents() {
					parents = append(parents, p.Name)
				}
				rows = append(rows, resourceRow{
					Command: ep.Command,
					Type:    ep.Type,
					URI:     ep.URI,
					Parents: strings.Join(parents, ","),
				})
			}
			return renderer.Render(rows)
		},
	}
}

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			rt, err := runtimeFrom(c)
			if err != nil {
				return err
			}
			renderer, err := rt.renderer(c, output.FormatTable)
			if err != nil {
				return err
			}
			return renderer.Render(buildinfo.Get())
		},
	}
}
