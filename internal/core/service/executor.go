package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/yndnr/sdncli-go/internal/core/domain"
	"github.com/yndnr/sdncli-go/internal/telemetry/logger"
)

// Renderer presents a controller response.
type Renderer interface {
	RenderBody(body []byte, fields []string) error
}

// Invocation is one resource command as typed by the operator.
type Invocation struct {
	Endpoint   domain.Endpoint
	Operation  domain.Operation
	Names      []string          // targets, empty for READALL
	Attributes map[string]any    // merged into every envelope
	Fields     []string          // response projection
	Filters    any               // READALL predicate, nil keeps {}
	Parents    map[string]string // parent name or id per URI placeholder
}

// Executor runs invocations: it resolves parents and names, builds one
// envelope per target, dispatches it and renders the answer.
type Executor struct {
	dispatcher Dispatcher
	resolver   *NameResolver
	renderer   Renderer
	caller     domain.Caller
	log        logger.Logger
}

// NewExecutor wires an executor.
func NewExecutor(d Dispatcher, resolver *NameResolver, renderer Renderer) *Executor {
	return &Executor{
		dispatcher: d,
		resolver:   resolver,
		renderer:   renderer,
		log:        logger.Default(),
	}
}

// SetCaller sets the identity stamped on every envelope.
func (e *Executor) SetCaller(c domain.Caller) *Executor {
	e.caller = c
	return e
}

// SetLogger replaces the executor logger.
func (e *Executor) SetLogger(l logger.Logger) *Executor {
	if l != nil {
		e.log = l
	}
	return e
}

// ResolveURI fills the parent placeholders of the endpoint URI, resolving
// each parent name in its own collection.
func (e *Executor) ResolveURI(ctx context.Context, ep domain.Endpoint, parents map[string]string) (string, error) {
	ids := make(map[string]string)
	for _, p := range ep.Parents() {
		ref := parents[p.Name]
		if ref == "" {
			return "", domain.ErrInvalidArgument.WithDetailsf("%s needs --%s", ep.Command, p.Name)
		}
		id, err := e.resolver.Resolve(ctx, p.ExpandPrefix(ids), ref)
		if err != nil {
			return "", err
		}
		ids[p.Name] = id.String()
	}
	return ep.Expand(ids)
}

// Execute runs inv. Targets are handled in order and the first failure
// stops the batch; earlier targets stay applied.
func (e *Executor) Execute(ctx context.Context, inv Invocation) error {
	uri, err := e.ResolveURI(ctx, inv.Endpoint, inv.Parents)
	if err != nil {
		return err
	}

	if len(inv.Names) == 0 {
		return e.send(ctx, uri, e.builder(inv), inv.Fields)
	}

	for _, name := range inv.Names {
		b := e.builder(inv)
		if err := e.target(ctx, b, uri, name); err != nil {
			return err
		}
		if err := e.send(ctx, uri, b, inv.Fields); err != nil {
			return err
		}
	}
	return nil
}

// builder starts an envelope with everything the targets share. Each
// target gets its own builder so that one target's name or id never leaks
// into the next envelope.
func (e *Executor) builder(inv Invocation) *domain.EnvelopeBuilder {
	b := domain.NewEnvelopeBuilder().
		SetCaller(e.caller).
		SetType(inv.Endpoint.Type).
		SetOperation(inv.Operation).
		SetFields(inv.Fields).
		MergeAttributes(inv.Attributes)
	if inv.Filters != nil {
		b.SetFilters(inv.Filters)
	}
	return b
}

// target names the envelope subject. CREATE takes the name as is; other
// operations need an id, looked up when name is not a UUID already.
func (e *Executor) target(ctx context.Context, b *domain.EnvelopeBuilder, uri, name string) error {
	if b.Operation() == domain.OpCreate {
		b.SetName(name)
		return nil
	}
	if id, err := uuid.Parse(name); err == nil {
		b.SetID(id)
		return nil
	}
	id, err := e.resolver.Resolve(ctx, uri, name)
	if err != nil {
		return err
	}
	b.SetName(name).SetID(id)
	return nil
}

func (e *Executor) send(ctx context.Context, uri string, b *domain.EnvelopeBuilder, fields []string) error {
	env := b.Build()
	e.log.Debug("dispatching", "operation", env.Context.Operation, "type", env.Context.Type,
		"uri", uri, "request_id", env.Context.RequestID)

	body, err := e.dispatcher.Dispatch(ctx, uri, env)
	if err != nil {
		return err
	}
	return e.renderer.RenderBody(body, fields)
}
