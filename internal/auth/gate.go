package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/keithlinneman/yummigo-web/internal/cryptoutil"
)

var (
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrNotConfigured means the server has no password or key to check
	// against. It is a deployment fault, not a client one.
	ErrNotConfigured = errors.New("auth: admin credentials not configured")
)

const (
	MethodPassword = "password"
	MethodAPIKey   = "api_key"
)

// Metrics is implemented by the metrics package.
type Metrics interface {
	IncAuthAttempt(kind string, err error)
}

// Session is an authenticated admin. APIKey is only set on sessions
// created by Login, which hands the key to the client.
type Session struct {
	ID       string    `json:"id"`
	Method   string    `json:"method"`
	APIKey   string    `json:"-"`
	IssuedAt time.Time `json:"issuedAt"`
}

type Gate struct {
	password string
	apiKey   string
	metrics  Metrics
	now      func() time.Time
}

func NewGate(password, apiKey string, m Metrics) *Gate {
	return &Gate{password: password, apiKey: apiKey, metrics: m, now: time.Now}
}

// Configured reports whether both secrets are set.
func (g *Gate) Configured() bool { return g.password != "" && g.apiKey != "" }

// Login checks the admin password and returns a session carrying the API
// key for subsequent requests.
func (g *Gate) Login(ctx context.Context, password string) (Session, error) {
	s, err := g.login(password)
	g.observe(MethodPassword, err)
	return s, err
}

func (g *Gate) login(password string) (Session, error) {
	if !g.Configured() {
		return Session{}, ErrNotConfigured
	}
	if !cryptoutil.SecretEqual(password, g.password) {
		return Session{}, ErrUnauthorized
	}
	return Session{
		ID:       newSessionID(),
		Method:   MethodPassword,
		APIKey:   g.apiKey,
		IssuedAt: g.now().UTC(),
	}, nil
}

// Authorize checks a presented API key.
func (g *Gate) Authorize(ctx context.Context, key string) (Session, error) {
	s, err := g.authorize(key)
	g.observe(MethodAPIKey, err)
	return s, err
}

func (g *Gate) authorize(key string) (Session, error) {
	if g.apiKey == "" {
		return Session{}, ErrNotConfigured
	}
	if key == "" || !cryptoutil.SecretEqual(key, g.apiKey) {
		return Session{}, ErrUnauthorized
	}
	return Session{
		// stable per key so log lines from one admin group together
		ID:       "key-" + cryptoutil.SHA256Hex([]byte(key))[:12],
		Method:   MethodAPIKey,
		IssuedAt: g.now().UTC(),
	}, nil
}

func (g *Gate) observe(kind string, err error) {
	if g.metrics != nil {
		g.metrics.IncAuthAttempt(kind, err)
	}
}

func newSessionID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
