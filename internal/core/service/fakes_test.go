package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/yndnr/sdncli-go/internal/core/domain"
)

type call struct {
	URI   string
	Env   domain.Envelope
	Query bool
}

// fakeDispatcher answers lookups with lookup and dispatches with dispatch.
type fakeDispatcher struct {
	mu       sync.Mutex
	calls    []call
	lookup   func(uri string, env domain.Envelope) ([]byte, error)
	dispatch func(uri string, env domain.Envelope) ([]byte, error)
}

func (f *fakeDispatcher) record(uri string, body any, query bool) domain.Envelope {
	env, _ := body.(domain.Envelope)
	f.mu.Lock()
	f.calls = append(f.calls, call{URI: uri, Env: env, Query: query})
	f.mu.Unlock()
	return env
}

func (f *fakeDispatcher) Dispatch(_ context.Context, uri string, body any) ([]byte, error) {
	env := f.record(uri, body, false)
	if f.dispatch == nil {
		return []byte(`{}`), nil
	}
	return f.dispatch(uri, env)
}

func (f *fakeDispatcher) Query(_ context.Context, uri string, body any) ([]byte, error) {
	env := f.record(uri, body, true)
	if f.lookup == nil {
		return []byte(`[]`), nil
	}
	return f.lookup(uri, env)
}

func (f *fakeDispatcher) queries() []call {
	var out []call
	for _, c := range f.calls {
		if c.Query {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeDispatcher) dispatches() []call {
	var out []call
	for _, c := range f.calls {
		if !c.Query {
			out = append(out, c)
		}
	}
	return out
}

// records serializes lookup results.
func records(rs ...map[string]any) []byte {
	b, _ := json.Marshal(rs)
	return b
}

type fakeRenderer struct {
	bodies []string
	fields [][]string
}

func (r *fakeRenderer) RenderBody(body []byte, fields []string) error {
	r.bodies = append(r.bodies, string(body))
	r.fields = append(r.fields, fields)
	return nil
}

type countingObserver struct {
	results []string
}

func (o *countingObserver) ObserveResolve(result string) {
	o.results = append(o.results, result)
}
