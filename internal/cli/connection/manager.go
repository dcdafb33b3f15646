package connection

import (
	"io"
	"sync"
	"time"

	"github.com/yndnr/sdncli-go/internal/cli/config"
	"github.com/yndnr/sdncli-go/internal/infra/tlsroots"
	"github.com/yndnr/sdncli-go/internal/telemetry/logger"
)

// Settings are per-invocation overrides applied on top of the config.
type Settings struct {
	Port     int            // API port override, 0 keeps api.port
	Rate     float64        // requests per second, 0 is unlimited
	Timeout  *time.Duration // overrides api.timeout when set
	Timing   io.Writer      // timing line sink, nil disables
	NoReauth bool           // fail on 401 instead of re-authenticating once
	Observer Observer
	Logger   logger.Logger

	// BeforeConnect runs once before the first client is built, e.g. to
	// prompt for a missing password.
	BeforeConnect func(cfg *config.CLIConfig) error
}

// Manager owns the auth session and the HTTP client of one invocation.
// Both are built on first use so that commands which never reach the
// controller do not need a complete configuration.
type Manager struct {
	cfg      *config.CLIConfig
	settings Settings

	mu      sync.Mutex
	session *AuthSession
	client  *HTTPClient
}

// NewManager creates a new connection manager.
func NewManager(cfg *config.CLIConfig, settings Settings) *Manager {
	if settings.Logger == nil {
		settings.Logger = logger.Default()
	}
	if settings.Observer == nil {
		settings.Observer = nopObserver{}
	}
	return &Manager{cfg: cfg, settings: settings}
}

// Client returns the HTTP client, connecting on first call.
func (m *Manager) Client() (*HTTPClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return m.client, nil
	}
	if err := m.connect(); err != nil {
		return nil, err
	}
	return m.client, nil
}

// Session returns the auth session, connecting on first call.
func (m *Manager) Session() (*AuthSession, error) {
	if _, err := m.Client(); err != nil {
		return nil, err
	}
	return m.session, nil
}

// IsConnected reports whether the client has been built.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client != nil
}

// Disconnect drops the client and the cached token and closes idle
// connections.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		m.client.HTTP().CloseIdleConnections()
	}
	m.client = nil
	m.session = nil
}

func (m *Manager) connect() error {
	if m.settings.BeforeConnect != nil {
		if err := m.settings.BeforeConnect(m.cfg); err != nil {
			return err
		}
	}
	if err := m.cfg.Validate(); err != nil {
		return err
	}

	timeout, err := m.cfg.Timeout()
	if err != nil {
		return err
	}
	if m.settings.Timeout != nil {
		timeout = *m.settings.Timeout
	}

	tlsCfg, err := tlsroots.ClientConfig(tlsroots.ClientOptions{
		CAFile:   m.cfg.API.CAFile,
		CertFile: m.cfg.API.CertFile,
		KeyFile:  m.cfg.API.KeyFile,
		Insecure: m.cfg.API.Insecure,
	})
	if err != nil {
		return err
	}

	port := m.cfg.API.Port
	if m.settings.Port > 0 {
		port = m.settings.Port
	}

	client := NewHTTPClient(nil, Options{
		Scheme:   m.cfg.API.Scheme,
		Host:     m.cfg.APIHost(),
		Port:     port,
		Timeout:  timeout,
		TLS:      tlsCfg,
		Rate:     m.settings.Rate,
		Timing:   m.settings.Timing,
		NoReauth: m.settings.NoReauth,
		Observer: m.settings.Observer,
		Logger:   m.settings.Logger,
	})

	a := m.cfg.Auth
	session := NewAuthSession(AuthConfig{
		Scheme:   a.Scheme,
		Host:     a.Host,
		Port:     a.Port,
		User:     a.User,
		Password: a.Password,
		Project:  a.Project,
		Version:  a.Version,
		Domain:   a.Domain,
	}, client.HTTP())
	session.SetObserver(m.settings.Observer)
	session.SetLogger(m.settings.Logger)
	client.session = session

	m.session = session
	m.client = client
	return nil
}
