package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/yndnr/sdncli-go/internal/core/domain"
)

// RequestFile is a canned raw request. Comments and trailing commas are
// allowed, so a file can keep several commented-out variants around.
type RequestFile struct {
	Method string          `json:"method"`
	Port   int             `json:"port,omitempty"`
	API    string          `json:"api"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// LoadRequestFile reads and validates a request file.
func LoadRequestFile(path string) (*RequestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rf RequestFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &rf); err != nil {
		return nil, domain.ErrInvalidArgument.WithDetailsf("parse request file %s", path).WithCause(err)
	}

	rf.Method = strings.ToUpper(strings.TrimSpace(rf.Method))
	if rf.Method == "" {
		rf.Method = "POST"
	}
	switch rf.Method {
	case "GET", "POST", "DELETE":
	default:
		return nil, domain.ErrInvalidArgument.WithDetailsf("unsupported method %q in %s", rf.Method, path)
	}
	if rf.API == "" {
		return nil, domain.ErrInvalidArgument.WithDetailsf("missing \"api\" in %s", path)
	}
	return &rf, nil
}
