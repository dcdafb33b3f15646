package domain

import (
	"regexp"
	"strings"
)

// placeholderPattern matches "<pool_id>" style URI placeholders.
var placeholderPattern = regexp.MustCompile(`<([a-z][a-z0-9_]*)_id>`)

// AttributeHint documents an attribute a resource commonly takes.
type AttributeHint struct {
	Key   string
	Value any
}

// Endpoint maps a CLI command to a controller resource.
type Endpoint struct {
	Command    string
	Type       string
	URI        string
	Attributes []AttributeHint
}

// Parent is a resource an endpoint URI depends on.
type Parent struct {
	// Name is the placeholder stem, "pool" for "<pool_id>".
	Name string
	// Placeholder is the literal token in the URI template.
	Placeholder string
	// URI is the collection the parent is looked up in.
	URI string
}

// Parents lists the placeholders of the URI template in order of appearance.
// The lookup URI of each parent is the template prefix up to the placeholder,
// so "/neutron/pool/<pool_id>/member" has parent "pool" at "/neutron/pool".
// A nested parent's URI may itself contain the placeholders of the parents
// before it; ExpandPrefix fills them in.
func (e Endpoint) Parents() []Parent {
	locs := placeholderPattern.FindAllStringSubmatchIndex(e.URI, -1)
	parents := make([]Parent, 0, len(locs))
	for _, loc := range locs {
		parents = append(parents, Parent{
			Name:        e.URI[loc[2]:loc[3]],
			Placeholder: e.URI[loc[0]:loc[1]],
			URI:         strings.TrimSuffix(e.URI[:loc[0]], "/"),
		})
	}
	return parents
}

// ExpandPrefix substitutes the ids resolved so far into a parent URI.
func (p Parent) ExpandPrefix(ids map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(p.URI, func(tok string) string {
		name := placeholderPattern.FindStringSubmatch(tok)[1]
		if id, ok := ids[name]; ok {
			return id
		}
		return tok
	})
}

// Expand substitutes resolved parent ids into the URI template. Unresolved
// placeholders are reported as a configuration error.
func (e Endpoint) Expand(ids map[string]string) (string, error) {
	uri := e.URI
	for _, p := range e.Parents() {
		id, ok := ids[p.Name]
		if !ok || id == "" {
			return "", NewConfigError("uri %s needs a %s", e.URI, p.Name)
		}
		uri = strings.Replace(uri, p.Placeholder, id, 1)
	}
	return uri, nil
}

// Registry is the ordered set of endpoints known to the CLI.
type Registry struct {
	endpoints []Endpoint
	index     map[string]int
}

// NewRegistry builds a registry. Duplicate or empty commands are rejected.
func NewRegistry(endpoints []Endpoint) (*Registry, error) {
	r := &Registry{
		endpoints: make([]Endpoint, 0, len(endpoints)),
		index:     make(map[string]int, len(endpoints)),
	}
	for _, ep := range endpoints {
		switch {
		case ep.Command == "":
			return nil, NewConfigError("resource with type %q has no cmd", ep.Type)
		case ep.Type == "":
			return nil, NewConfigError("resource %q has no type", ep.Command)
		case ep.URI == "":
			return nil, NewConfigError("resource %q has no uri", ep.Command)
		}
		if _, dup := r.index[ep.Command]; dup {
			return nil, NewConfigError("resource command %q defined twice", ep.Command)
		}
		r.index[ep.Command] = len(r.endpoints)
		r.endpoints = append(r.endpoints, ep)
	}
	return r, nil
}

// Lookup returns the endpoint registered for command.
func (r *Registry) Lookup(command string) (Endpoint, error) {
	i, ok := r.index[command]
	if !ok {
		return Endpoint{}, NewConfigError("no resource found for command %s, please check the config file", command)
	}
	return r.endpoints[i], nil
}

// Endpoints returns the registered endpoints in configuration order.
func (r *Registry) Endpoints() []Endpoint {
	out := make([]Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// Len returns the number of endpoints.
func (r *Registry) Len() int {
	return len(r.endpoints)
}
