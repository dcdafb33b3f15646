package command

import (
	"encoding/json"
	"errors"
	"io"
	"maps"
	"strings"

	"github.com/yndnr/sdncli-go/internal/core/domain"
)

const jsonUsage = "don't miss `\"` around strings; quote a whole list or dict with `'`, or escape inner `\"` with `\\`"

// ParseAttribute parses one KEY=<json> attribute. A value that is not JSON
// is taken as a plain string unless it opens a list or dict, in which case
// it must be valid JSON.
func ParseAttribute(s string) (map[string]any, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok {
		return nil, domain.ErrInvalidArgument.WithDetailsf("invalid KEY=value: no `=` found in `%s`", s)
	}
	if key == "" {
		return nil, domain.ErrInvalidArgument.WithDetailsf("invalid KEY=value: empty key in `%s`", s)
	}

	v, err := decodeJSON(raw)
	if err != nil {
		if strings.HasPrefix(raw, "[") || strings.HasPrefix(raw, "{") {
			return nil, domain.ErrInvalidArgument.
				WithDetailsf("cannot parse %s to json; %s", key, jsonUsage).
				WithCause(err)
		}
		v = raw
	}
	return map[string]any{key: v}, nil
}

// ParseAttributes merges attributes in order; a repeated key keeps the
// last value.
func ParseAttributes(args []string) (map[string]any, error) {
	out := make(map[string]any)
	for _, a := range args {
		m, err := ParseAttribute(a)
		if err != nil {
			return nil, err
		}
		maps.Copy(out, m)
	}
	return out, nil
}

// ParseFilter parses the JSON predicate of "list --filter".
func ParseFilter(s string) (any, error) {
	v, err := decodeJSON(s)
	if err != nil {
		return nil, domain.ErrInvalidArgument.WithDetailsf("filter is not valid JSON; %s", jsonUsage).WithCause(err)
	}
	return v, nil
}

// decodeJSON decodes exactly one JSON value. Numbers keep their literal
// form so that large integer ids survive unchanged.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if err := dec.Decode(new(any)); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// splitList flattens comma separated arguments, dropping empty items.
func splitList(args []string) []string {
	var out []string
	for _, a := range args {
		for _, item := range strings.Split(a, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
