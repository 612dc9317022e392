// Package session resolves an authenticated handle to the managed inference
// platform.
//
// Resolution is an explicit ordered strategy: an ambient session injected by
// the hosting runtime is preferred, and a session built from caller-supplied
// connection configuration is the fallback. The returned Session records
// which path produced it. There is no retry; a failure here is fatal to the
// whole invocation path.
package session

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Environment variables the managed host injects when the application runs
// inside the platform. When both are present no fallback config is consulted.
const (
	EnvHost      = "PROMPTDECK_SESSION_HOST"
	EnvToken     = "PROMPTDECK_SESSION_TOKEN"
	EnvTokenFile = "PROMPTDECK_SESSION_TOKEN_FILE"
)

// Source tags which resolution path produced a session.
type Source string

const (
	SourceAmbient Source = "ambient"
	SourceConfig  Source = "config"
)

// Config is the fallback connection configuration, supplied by the operator
// when the application runs outside the managed host. The exact field
// semantics are owned by the platform; this package only validates presence.
type Config struct {
	Account   string `mapstructure:"account" validate:"required"`
	User      string `mapstructure:"user" validate:"required"`
	Token     string `mapstructure:"token" validate:"required"`
	Role      string `mapstructure:"role"`
	Warehouse string `mapstructure:"warehouse"`
	Host      string `mapstructure:"host"` // derived from Account when empty
}

// Session is an authenticated handle to the remote compute context.
type Session struct {
	Host      string
	Token     string
	Role      string
	Warehouse string
	Source    Source
}

// ConnectionError reports that no session could be established: no ambient
// session exists and the supplied configuration is absent or invalid.
type ConnectionError struct {
	Reason string
	Cause  error
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("session: %s", e.Reason)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

var validate = validator.New()

// AmbientAvailable reports whether the hosting runtime has injected a
// session, without constructing one.
func AmbientAvailable() bool {
	if os.Getenv(EnvHost) == "" {
		return false
	}
	return os.Getenv(EnvToken) != "" || os.Getenv(EnvTokenFile) != ""
}

// Acquire resolves a session: ambient first, supplied config second.
func Acquire(cfg Config) (*Session, error) {
	if s, ok := fromAmbient(); ok {
		return s, nil
	}
	return fromConfig(cfg)
}

func fromAmbient() (*Session, bool) {
	host := os.Getenv(EnvHost)
	if host == "" {
		return nil, false
	}

	token := os.Getenv(EnvToken)
	if token == "" {
		path := os.Getenv(EnvTokenFile)
		if path == "" {
			return nil, false
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, false
		}
		token = strings.TrimSpace(string(data))
		if token == "" {
			return nil, false
		}
	}

	return &Session{
		Host:   host,
		Token:  token,
		Source: SourceAmbient,
	}, true
}

func fromConfig(cfg Config) (*Session, error) {
	if cfg == (Config{}) {
		return nil, &ConnectionError{Reason: "no ambient session and no connection config supplied"}
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConnectionError{Reason: "invalid connection config", Cause: err}
	}

	host := cfg.Host
	if host == "" {
		host = fmt.Sprintf("https://%s.inference.cloud", strings.ToLower(cfg.Account))
	}

	return &Session{
		Host:      host,
		Token:     cfg.Token,
		Role:      cfg.Role,
		Warehouse: cfg.Warehouse,
		Source:    SourceConfig,
	}, nil
}

// Authorize attaches the session credentials to an outbound request.
func (s *Session) Authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.Token)
	if s.Role != "" {
		req.Header.Set("X-Session-Role", s.Role)
	}
	if s.Warehouse != "" {
		req.Header.Set("X-Session-Warehouse", s.Warehouse)
	}
}
