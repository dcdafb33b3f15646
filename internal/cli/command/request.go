package command

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tidwall/jsonc"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/sdncli-go/internal/cli/config"
	"github.com/yndnr/sdncli-go/internal/cli/connection"
	"github.com/yndnr/sdncli-go/internal/cli/output"
	"github.com/yndnr/sdncli-go/internal/core/domain"
)

// RequestCommand sends a raw request to any controller URI.
func RequestCommand() *cli.Command {
	return &cli.Command{
		Name:     "request",
		Aliases:  []string{"req"},
		Usage:    "Send a raw request to a controller URI",
		Category: "Tools",
		Description: "With --data the body is POSTed, otherwise the URI is fetched with GET.\n" +
			"A request file holds {\"method\": ..., \"port\": ..., \"api\": ..., \"body\": ...}\n" +
			"and may contain comments and trailing commas.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "uri", Aliases: []string{"u"}, Usage: "Controller URI, e.g. /neutron/network"},
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON request body"},
			&cli.StringFlag{Name: "method", Aliases: []string{"m"}, Usage: "GET, POST or DELETE"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port for this request only"},
			&cli.StringFlag{Name: "file", Aliases: []string{"F"}, Usage: "Request file"},
		},
		Action: requestAction,
	}
}

func requestAction(c *cli.Context) error {
	req, err := buildRequest(c)
	if err != nil {
		return err
	}

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

	resp, err := client.Do(c.Context, req)
	if err != nil {
		return err
	}
	if err := renderer.RenderBody(resp.Body, nil); err != nil {
		return err
	}
	rt.printAPIHost(c)
	return nil
}

// buildRequest assembles a request from a request file or from flags.
func buildRequest(c *cli.Context) (connection.Request, error) {
	var req connection.Request

	if file := c.String("file"); file != "" {
		rf, err := config.LoadRequestFile(file)
		if err != nil {
			return req, err
		}
		req = connection.Request{Method: rf.Method, URI: rf.API, Port: rf.Port}
		if len(rf.Body) > 0 {
			req.Body = rf.Body
		}
	} else {
		req.URI = c.String("uri")
		if req.URI == "" {
			return req, domain.ErrInvalidArgument.WithDetails("request needs --uri or --file")
		}
		req.Method = strings.ToUpper(c.String("method"))
		if data := c.String("data"); data != "" {
			body := jsonc.ToJSON([]byte(data))
			if !json.Valid(body) {
				return req, domain.ErrInvalidArgument.WithDetailsf("--data is not valid JSON; %s", jsonUsage)
			}
			req.Body = json.RawMessage(body)
			if req.Method == "" {
				req.Method = http.MethodPost
			}
		}
		if req.Method == "" {
			req.Method = http.MethodGet
		}
	}

	switch req.Method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return req, domain.ErrInvalidArgument.WithDetailsf("unsupported method %q (GET, POST, DELETE)", req.Method)
	}
	if c.IsSet("port") {
		req.Port = c.Int("port")
	}
	return req, nil
}
