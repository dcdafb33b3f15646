package domain

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// RequestIDPrefix prefixes every generated envelope request id.
const RequestIDPrefix = "req-sdncli-"

// Placeholder context values the controller accepts from admin tooling.
const (
	DefaultTenantID = "ad88dd5d24ce4e2189a6ae7491c33e9d"
	DefaultUserID   = "44faef681cd34e1c80b8520dd6aebad4"
)

// Envelope is the uniform request body POSTed for every resource operation.
type Envelope struct {
	Data    EnvelopeData    `json:"data"`
	Context EnvelopeContext `json:"context"`
}

// EnvelopeData carries the projection, the predicate and the resource payload.
type EnvelopeData struct {
	Fields   []string       `json:"fields"`
	Filters  any            `json:"filters"`
	ID       string         `json:"id,omitempty"`
	Resource map[string]any `json:"resource"`
}

// EnvelopeContext identifies the caller and the operation.
type EnvelopeContext struct {
	IsAdmin   bool      `json:"is_admin"`
	Operation Operation `json:"operation"`
	RequestID string    `json:"request_id"`
	TenantID  string    `json:"tenant_id"`
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
}

// Caller overrides the placeholder identity fields of the envelope context.
// Empty strings keep the defaults.
type Caller struct {
	TenantID string
	UserID   string
	IsAdmin  *bool
}

// EnvelopeBuilder accumulates operation metadata and attributes. A builder
// may be finalized many times; every Build gets its own request id and its
// own copy of the accumulated state.
type EnvelopeBuilder struct {
	operation    Operation
	resourceType string
	fields       []string
	filters      any
	id           *uuid.UUID
	attributes   map[string]any

	isAdmin  bool
	tenantID string
	userID   string

	newID func() string
}

// NewEnvelopeBuilder returns a READALL builder with empty filters.
func NewEnvelopeBuilder() *EnvelopeBuilder {
	return &EnvelopeBuilder{
		operation:  OpReadAll,
		filters:    map[string]any{},
		attributes: map[string]any{},
		isAdmin:    true,
		tenantID:   DefaultTenantID,
		userID:     DefaultUserID,
		newID:      uuid.NewString,
	}
}

// SetCaller applies identity overrides.
func (b *EnvelopeBuilder) SetCaller(c Caller) *EnvelopeBuilder {
	if c.TenantID != "" {
		b.tenantID = c.TenantID
	}
	if c.UserID != "" {
		b.userID = c.UserID
	}
	if c.IsAdmin != nil {
		b.isAdmin = *c.IsAdmin
	}
	return b
}

// SetType sets the resource type echoed in the context.
func (b *EnvelopeBuilder) SetType(resourceType string) *EnvelopeBuilder {
	b.resourceType = resourceType
	return b
}

// SetOperation sets the operation verb.
func (b *EnvelopeBuilder) SetOperation(op Operation) *EnvelopeBuilder {
	b.operation = op
	return b
}

// SetID sets the target identifier. The controller reads the id from the
// resource payload, so it is mirrored into the attributes.
func (b *EnvelopeBuilder) SetID(id uuid.UUID) *EnvelopeBuilder {
	b.id = &id
	b.attributes["id"] = id.String()
	return b
}

// SetName records the resource name in the attributes.
func (b *EnvelopeBuilder) SetName(name string) *EnvelopeBuilder {
	return b.MergeAttributes(map[string]any{"name": name})
}

// MergeAttributes unions fragment into the attributes; later keys win.
func (b *EnvelopeBuilder) MergeAttributes(fragment map[string]any) *EnvelopeBuilder {
	maps.Copy(b.attributes, fragment)
	return b
}

// SetFields replaces the response projection.
func (b *EnvelopeBuilder) SetFields(fields []string) *EnvelopeBuilder {
	b.fields = slices.Clone(fields)
	return b
}

// SetFilters replaces the filter predicate. It is forwarded verbatim.
func (b *EnvelopeBuilder) SetFilters(filters any) *EnvelopeBuilder {
	b.filters = filters
	return b
}

// Operation returns the operation currently set.
func (b *EnvelopeBuilder) Operation() Operation {
	return b.operation
}

// Build finalizes an envelope with a fresh request id.
func (b *EnvelopeBuilder) Build() Envelope {
	fields := slices.Clone(b.fields)
	if fields == nil {
		fields = []string{}
	}

	env := Envelope{
		Data: EnvelopeData{
			Fields:   fields,
			Filters:  b.filters,
			Resource: maps.Clone(b.attributes),
		},
		Context: EnvelopeContext{
			IsAdmin:   b.isAdmin,
			Operation: b.operation,
			RequestID: RequestIDPrefix + b.newID(),
			TenantID:  b.tenantID,
			Type:      b.resourceType,
			UserID:    b.userID,
		},
	}
	if b.id != nil {
		env.Data.ID = b.id.String()
	}
	return env
}
