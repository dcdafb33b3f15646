package connection

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/yndnr/sdncli-go/internal/cli/config"
	"github.com/yndnr/sdncli-go/internal/core/domain"
)

func TestNewManager(t *testing.T) {
	m := NewManager(config.Default(), Settings{})
	if m == nil {
		t.Fatal("NewManager returned nil")
	}
	if m.IsConnected() {
		t.Error("new manager should not be connected")
	}
}

func TestManager_InvalidConfig(t *testing.T) {
	m := NewManager(config.Default(), Settings{})

	_, err := m.Client()
	if !errors.Is(err, domain.ErrConfig) {
		t.Errorf("expected ErrConfig for a config without host, got %v", err)
	}
	if m.IsConnected() {
		t.Error("manager should stay disconnected after a failed connect")
	}
}

func TestManager_Client(t *testing.T) {
	ctl := newController(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	host, port := hostPort(t, ctl.srv)

	cfg := config.Default()
	cfg.Auth.Host = host
	cfg.Auth.Port = port
	cfg.Auth.User = "admin"
	cfg.API.Port = 1

	prompted := 0
	m := NewManager(cfg, Settings{
		Port: port,
		BeforeConnect: func(c *config.CLIConfig) error {
			prompted++
			c.Auth.Password = "typed"
			return nil
		},
	})

	client, err := m.Client()
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	again, _ := m.Client()
	if client != again {
		t.Error("Client() should return the same client")
	}
	if prompted != 1 {
		t.Errorf("BeforeConnect ran %d times, want 1", prompted)
	}

	if _, err := client.Post(context.Background(), "/neutron/network", nil); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	session, err := m.Session()
	if err != nil || session == nil {
		t.Fatalf("Session() = %v, %v", session, err)
	}

	m.Disconnect()
	if m.IsConnected() {
		t.Error("IsConnected() should be false after Disconnect")
	}
}
