package config

import "github.com/yndnr/sdncli-go/internal/core/domain"

// CLIConfig is the configuration for sdncli (~/.sdncli/config.toml).
type CLIConfig struct {
	Auth      AuthConfig       `koanf:"auth" toml:"auth"`
	API       APIConfig        `koanf:"api" toml:"api"`
	Context   ContextConfig    `koanf:"context" toml:"context"`
	Output    OutputConfig     `koanf:"output" toml:"output"`
	Resources []ResourceConfig `koanf:"resource" toml:"resource"`
}

// AuthConfig describes the Keystone-style identity endpoint.
type AuthConfig struct {
	Host     string `koanf:"host" toml:"host"`
	Port     int    `koanf:"port" toml:"port"`
	Scheme   string `koanf:"scheme" toml:"scheme"`
	User     string `koanf:"user" toml:"user"`
	Password string `koanf:"password" toml:"password"`
	Project  string `koanf:"project" toml:"project"`
	Version  string `koanf:"version" toml:"version"` // v2 or v3
	Domain   string `koanf:"domain" toml:"domain"`   // v3 only
}

// APIConfig describes the controller REST endpoint. Host falls back to the
// auth host when empty.
type APIConfig struct {
	Host     string `koanf:"host" toml:"host,omitempty"`
	Port     int    `koanf:"port" toml:"port"`
	Scheme   string `koanf:"scheme" toml:"scheme"`
	Timeout  string `koanf:"timeout" toml:"timeout"`
	CAFile   string `koanf:"ca_file" toml:"ca_file,omitempty"`
	CertFile string `koanf:"cert_file" toml:"cert_file,omitempty"`
	KeyFile  string `koanf:"key_file" toml:"key_file,omitempty"`
	Insecure bool   `koanf:"insecure" toml:"insecure"`
}

// ContextConfig overrides the caller identity stamped into every envelope.
type ContextConfig struct {
	TenantID string `koanf:"tenant_id" toml:"tenant_id,omitempty"`
	UserID   string `koanf:"user_id" toml:"user_id,omitempty"`
	IsAdmin  *bool  `koanf:"is_admin" toml:"is_admin,omitempty"`
}

// OutputConfig holds presentation defaults.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // table, json, yaml, text
	Choose string `koanf:"choose" toml:"choose"` // prompt, fail, latest
}

// ResourceConfig maps a CLI command to a controller resource.
type ResourceConfig struct {
	Cmd  string       `koanf:"cmd" toml:"cmd"`
	Type string       `koanf:"type" toml:"type"`
	URI  string       `koanf:"uri" toml:"uri"`
	Attr []AttrConfig `koanf:"attr" toml:"attr,omitempty"`
}

// AttrConfig is an example attribute shown in command help.
type AttrConfig struct {
	Key   string `koanf:"key" toml:"key"`
	Value any    `koanf:"value" toml:"value"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Auth: AuthConfig{
			Port:    6000,
			Scheme:  "http",
			Version: "v2",
			Domain:  "Default",
		},
		API: APIConfig{
			Port:    8082,
			Scheme:  "http",
			Timeout: "30s",
		},
		Output: OutputConfig{
			Format: "table",
			Choose: "prompt",
		},
		Resources: DefaultResources(),
	}
}

// DefaultResources returns the built-in command registry.
func DefaultResources() []ResourceConfig {
	neutron := func(cmd, typ string, attr ...AttrConfig) ResourceConfig {
		return ResourceConfig{Cmd: cmd, Type: typ, URI: "/neutron/" + typ, Attr: attr}
	}
	return []ResourceConfig{
		neutron("net", "network",
			AttrConfig{Key: "provider:segmentation_id", Value: 0},
			AttrConfig{Key: "router:external", Value: true},
			AttrConfig{Key: "provider:network_type", Value: ""},
			AttrConfig{Key: "subnets", Value: []any{""}},
		),
		neutron("subnet", "subnet"),
		neutron("port", "port"),
		neutron("router", "router"),
		neutron("sg", "security_group"),
		neutron("sgr", "security_group_rule"),
		neutron("fip", "floatingip"),
		neutron("lb", "loadbalancer",
			AttrConfig{Key: "vip_subnet_id", Value: ""},
			AttrConfig{Key: "vcpus", Value: 0},
			AttrConfig{Key: "ram", Value: 0},
		),
		neutron("lbl", "listener"),
		neutron("lbp", "pool"),
		{Cmd: "lbm", Type: "member", URI: "/neutron/pool/<pool_id>/member"},
		neutron("fw", "firewall_group"),
		neutron("fwp", "firewall_policy"),
		neutron("fwr", "firewall_rule"),
		neutron("sfw", "segment_firewall_group"),
		neutron("sfwp", "segment_firewall_policy"),
		neutron("sfwr", "segment_firewall_rule"),
		neutron("tag", "tag"),
		neutron("provider", "net_provider"),
	}
}

// Endpoints converts the resource table into registry endpoints.
func (c *CLIConfig) Endpoints() []domain.Endpoint {
	out := make([]domain.Endpoint, 0, len(c.Resources))
	for _, r := range c.Resources {
		ep := domain.Endpoint{Command: r.Cmd, Type: r.Type, URI: r.URI}
		for _, a := range r.Attr {
			ep.Attributes = append(ep.Attributes, domain.AttributeHint{Key: a.Key, Value: a.Value})
		}
		out = append(out, ep)
	}
	return out
}

// Registry builds a validated resource registry.
func (c *CLIConfig) Registry() (*domain.Registry, error) {
	return domain.NewRegistry(c.Endpoints())
}

// Caller returns the envelope caller identity from the [context] section.
func (c *CLIConfig) Caller() domain.Caller {
	return domain.Caller{
		TenantID: c.Context.TenantID,
		UserID:   c.Context.UserID,
		IsAdmin:  c.Context.IsAdmin,
	}
}
