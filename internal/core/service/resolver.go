package service

import (
	"context"
	"encoding/json"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yndnr/sdncli-go/internal/core/domain"
	"github.com/yndnr/sdncli-go/internal/telemetry/logger"
)

// Dispatcher delivers request bodies to the controller.
type Dispatcher interface {
	// Dispatch POSTs body to uri on the operator's behalf and returns the
	// response payload.
	Dispatch(ctx context.Context, uri string, body any) ([]byte, error)

	// Query is Dispatch for internal lookups; it stays out of the
	// operator-facing timing output.
	Query(ctx context.Context, uri string, body any) ([]byte, error)
}

// ResolveObserver records resolution outcomes.
type ResolveObserver interface {
	ObserveResolve(result string)
}

type nopResolveObserver struct{}

func (nopResolveObserver) ObserveResolve(string) {}

// NameResolver maps a human name to a resource UUID.
type NameResolver struct {
	dispatcher Dispatcher
	chooser    Chooser
	caller     domain.Caller
	observer   ResolveObserver
	log        logger.Logger
}

// NewNameResolver creates a resolver. Ambiguous names are settled by chooser.
func NewNameResolver(d Dispatcher, chooser Chooser) *NameResolver {
	return &NameResolver{
		dispatcher: d,
		chooser:    chooser,
		observer:   nopResolveObserver{},
		log:        logger.Default(),
	}
}

// SetCaller sets the identity stamped on lookup envelopes.
func (r *NameResolver) SetCaller(c domain.Caller) *NameResolver {
	r.caller = c
	return r
}

// SetObserver installs a metrics observer.
func (r *NameResolver) SetObserver(o ResolveObserver) *NameResolver {
	if o != nil {
		r.observer = o
	}
	return r
}

// SetLogger replaces the resolver logger.
func (r *NameResolver) SetLogger(l logger.Logger) *NameResolver {
	if l != nil {
		r.log = l
	}
	return r
}

// ResourceType is the last path segment of a collection URI.
func ResourceType(uri string) string {
	return path.Base(strings.TrimRight(uri, "/"))
}

// Resolve returns the id of the resource called name in the collection at
// uri. A name that already is a UUID is returned without any request.
func (r *NameResolver) Resolve(ctx context.Context, uri, name string) (uuid.UUID, error) {
	if id, err := uuid.Parse(name); err == nil {
		r.observer.ObserveResolve("direct")
		return id, nil
	}

	resource := ResourceType(uri)
	env := domain.NewEnvelopeBuilder().
		SetCaller(r.caller).
		SetType(resource).
		SetOperation(domain.OpReadAll).
		SetFilters(map[string]any{"name": name}).
		Build()

	r.log.Debug("resolving name", "resource", resource, "name", name, "request_id", env.Context.RequestID)

	body, err := r.dispatcher.Query(ctx, uri, env)
	if err != nil {
		r.observer.ObserveResolve("failed")
		return uuid.Nil, err
	}

	candidates, err := matchName(body, name)
	if err != nil {
		r.observer.ObserveResolve("failed")
		return uuid.Nil, err
	}

	var picked Candidate
	switch len(candidates) {
	case 0:
		r.observer.ObserveResolve("not_found")
		return uuid.Nil, domain.NewNotFoundError(resource, name)
	case 1:
		r.observer.ObserveResolve("unique")
		picked = candidates[0]
	default:
		index, err := r.chooser.Choose(ctx, resource, name, candidates)
		if err != nil {
			r.observer.ObserveResolve("failed")
			return uuid.Nil, err
		}
		r.observer.ObserveResolve("chosen")
		picked = candidates[index]
	}

	id, err := uuid.Parse(picked.ID)
	if err != nil {
		return uuid.Nil, domain.ErrMalformedResponse.WithDetailsf("%s %s has id %q", resource, name, picked.ID)
	}
	return id, nil
}

// matchName decodes a READALL answer and keeps the exact, case-sensitive
// name matches; the server side filter may be a prefix or substring match.
func matchName(body []byte, name string) ([]Candidate, error) {
	var records []map[string]any
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, domain.ErrMalformedResponse.WithDetails("lookup did not return a JSON array").WithCause(err)
	}

	var out []Candidate
	for _, rec := range records {
		if n, _ := rec["name"].(string); n != name {
			continue
		}
		c := Candidate{Name: name}
		c.ID, _ = rec["id"].(string)
		c.CreatedAt, _ = rec["created_at"].(string)
		if fq, ok := rec["fq_name"]; ok {
			b, _ := json.Marshal(fq)
			c.FQName = string(b)
		}
		out = append(out, c)
	}
	return out, nil
}
