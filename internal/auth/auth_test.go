package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

type countingMetrics struct{ ok, failed map[string]int }

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{ok: map[string]int{}, failed: map[string]int{}}
}

func (m *countingMetrics) IncAuthAttempt(kind string, err error) {
	if err != nil {
		m.failed[kind]++
		return
	}
	m.ok[kind]++
}

func TestLogin(t *testing.T) {
	m := newCountingMetrics()
	g := NewGate("s3cret", "key-123", m)

	sess, err := g.Login(context.Background(), "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.APIKey != "key-123" || sess.Method != MethodPassword || sess.ID == "" || sess.IssuedAt.IsZero() {
		t.Fatalf("session = %+v", sess)
	}

	if _, err := g.Login(context.Background(), "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong password err = %v, want ErrUnauthorized", err)
	}
	if m.ok[MethodPassword] != 1 || m.failed[MethodPassword] != 1 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestLogin_NotConfigured(t *testing.T) {
	for _, g := range []*Gate{NewGate("", "key", nil), NewGate("pw", "", nil)} {
		if _, err := g.Login(context.Background(), ""); !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("err = %v, want ErrNotConfigured", err)
		}
	}
}

func TestAuthorize(t *testing.T) {
	g := NewGate("pw", "key-123", nil)
	a, err := g.Authorize(context.Background(), "key-123")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	b, _ := g.Authorize(context.Background(), "key-123")
	if a.ID != b.ID || !strings.HasPrefix(a.ID, "key-") {
		t.Fatalf("session ids %q %q, want stable per key", a.ID, b.ID)
	}
	if a.APIKey != "" {
		t.Fatal("Authorize must not echo the key")
	}
	for _, k := range []string{"", "key-12", "key-1234"} {
		if _, err := g.Authorize(context.Background(), k); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Authorize(%q) = %v, want ErrUnauthorized", k, err)
		}
	}
	if _, err := NewGate("pw", "", nil).Authorize(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("unconfigured key err = %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	g := NewGate("pw", "key-123", nil)
	var got Session
	h := Middleware(g)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/content", http.NoBody)
	req.Header.Set(HeaderAPIKey, "key-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || got.Method != MethodAPIKey {
		t.Fatalf("valid key: %d session=%+v", rec.Code, got)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/content", http.NoBody)
	req.Header.Set(HeaderAPIKey, "nope")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized || strings.TrimSpace(rec.Body.String()) != `{"error":"Unauthorized"}` {
		t.Fatalf("bad key: %d %q", rec.Code, rec.Body.String())
	}
}

func TestMiddleware_NotConfigured(t *testing.T) {
	h := Middleware(NewGate("", "", nil))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached without a configured key")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/content", http.NoBody))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "Server configuration error") {
		t.Fatalf("unconfigured: %d %q", rec.Code, rec.Body.String())
	}
}

func TestSessionFromContext_Empty(t *testing.T) {
	if _, ok := SessionFromContext(context.Background()); ok {
		t.Fatal("session found on empty context")
	}
}

type fakeSSM struct {
	params map[string]string
	calls  []string
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	name := aws.ToString(in.Name)
	f.calls = append(f.calls, name)
	if !aws.ToBool(in.WithDecryption) {
		return nil, errors.New("expected decryption")
	}
	v, ok := f.params[name]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(v)}}, nil
}

func TestResolve(t *testing.T) {
	f := &fakeSSM{params: map[string]string{"/yummigo/pw": "from-ssm", "/yummigo/key": "key-ssm"}}

	pw, key, err := Resolve(context.Background(), f, Secrets{
		Password:      "literal",
		PasswordParam: "/yummigo/pw",
		APIKeyParam:   "/yummigo/key",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if pw != "literal" || key != "key-ssm" {
		t.Fatalf("pw=%q key=%q", pw, key)
	}
	if len(f.calls) != 1 || f.calls[0] != "/yummigo/key" {
		t.Fatalf("ssm calls = %v, literal should win", f.calls)
	}
}

func TestResolve_Errors(t *testing.T) {
	f := &fakeSSM{params: map[string]string{"/empty": ""}}
	if _, _, err := Resolve(context.Background(), f, Secrets{PasswordParam: "/missing"}); err == nil {
		t.Fatal("missing parameter should fail")
	}
	if _, _, err := Resolve(context.Background(), f, Secrets{APIKeyParam: "/empty"}); err == nil {
		t.Fatal("empty parameter should fail")
	}
	if _, _, err := Resolve(context.Background(), nil, Secrets{APIKeyParam: "/x"}); err == nil {
		t.Fatal("nil client should fail")
	}
	if (Secrets{Password: "a", PasswordParam: "/p"}).NeedsSSM() {
		t.Fatal("NeedsSSM with literal password")
	}
}
