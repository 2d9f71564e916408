package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonwraymond/provwatch/health"
	"github.com/jonwraymond/provwatch/secret"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "provwatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// upstream answers like a provider API: 200 for the right key, 401
// otherwise.
func upstream(t *testing.T, key string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+key {
			http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"check", "serve", "version", "--config"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out, "provwatch dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestParseConfig(t *testing.T) {
	t.Setenv("TEST_PROVWATCH_KEY", "sk-test")

	cfg, err := parseConfig([]byte(`
monitor:
  global_max_checks: 10
providers:
  - name: openai
    url: https://api.openai.com/v1/models
    headers:
      Authorization: Bearer ${TEST_PROVWATCH_KEY}
  - name: local
    url: ${TEST_PROVWATCH_LOCAL:-http://127.0.0.1:11434/api/tags}
`))
	if err != nil {
		t.Fatalf("parseConfig() error = %v", err)
	}
	if got := cfg.Providers[0].Headers["Authorization"]; got != "Bearer sk-test" {
		t.Errorf("Authorization = %q", got)
	}
	if got := cfg.Providers[1].URL; got != "http://127.0.0.1:11434/api/tags" {
		t.Errorf("local url = %q", got)
	}
	if cfg.Monitor.GlobalMaxChecks != 10 {
		t.Errorf("GlobalMaxChecks = %d", cfg.Monitor.GlobalMaxChecks)
	}
	if cfg.Observe.ServiceName != "provwatch" {
		t.Errorf("ServiceName = %q, want default", cfg.Observe.ServiceName)
	}
	if got := cfg.providerIDs(); len(got) != 2 || got[0] != "openai" {
		t.Errorf("providerIDs() = %v", got)
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"empty", "", errNoProviders},
		{"missing name", "providers:\n  - url: http://x\n", errProviderName},
		{"missing url", "providers:\n  - name: a\n", errProviderURL},
		{"duplicate", "providers:\n  - {name: a, url: http://x}\n  - {name: a, url: http://y}\n", nil},
		{"unknown key", "providers:\n  - {name: a, url: http://x, timeout: 5}\n", nil},
		{"negative limit", "monitor: {global_max_checks: -1}\nproviders:\n  - {name: a, url: http://x}\n", health.ErrInvalidConfig},
		{"missing env", "providers:\n  - {name: a, url: '${TEST_PROVWATCH_UNSET}'}\n", secret.ErrMissingEnv},
		{"bad log level", "observe: {logging: {enabled: true, level: loud}}\nproviders:\n  - {name: a, url: http://x}\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig([]byte(tt.data))
			if err == nil {
				t.Fatal("parseConfig() error = nil")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("parseConfig() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildProbers_ResolvesSecretRefs(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "openai_key")
	if err := os.WriteFile(keyFile, []byte("sk-from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	srv := upstream(t, "sk-from-file")

	probers, err := buildProbers(context.Background(), []providerConfig{{
		Name:    "openai",
		URL:     srv.URL,
		Headers: map[string]string{"Authorization": "Bearer secretref:file:" + keyFile},
	}}, secret.NewDefaultResolver(), srv.Client())
	if err != nil {
		t.Fatalf("buildProbers() error = %v", err)
	}
	if err := probers["openai"].Probe(context.Background()); err != nil {
		t.Errorf("Probe() error = %v", err)
	}
}

func TestBuildProbers_UnresolvedSecret(t *testing.T) {
	_, err := buildProbers(context.Background(), []providerConfig{{
		Name:    "openai",
		URL:     "http://example.invalid",
		Headers: map[string]string{"Authorization": "secretref:env:TEST_PROVWATCH_MISSING"},
	}}, secret.NewDefaultResolver(), nil)
	if !errors.Is(err, secret.ErrNotFound) {
		t.Fatalf("buildProbers() error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "Authorization") {
		t.Errorf("error %q does not name the header", err)
	}
}

func TestCheckCommand(t *testing.T) {
	srv := upstream(t, "good")
	path := writeConfig(t, fmt.Sprintf(`
providers:
  - name: good
    url: %[1]s
    headers: {Authorization: Bearer good}
  - name: revoked
    url: %[1]s
    headers: {Authorization: Bearer old}
`, srv.URL))

	out, err := execute(t, "check", "--config", path)
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	for _, want := range []string{"PROVIDER", "good", "online", "revoked", "auth_required"} {
		if !strings.Contains(out, want) {
			t.Errorf("check output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckCommand_FailOnDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	path := writeConfig(t, "providers:\n  - {name: flaky, url: "+srv.URL+"}\n")

	out, err := execute(t, "check", "--config", path, "--fail-on-down")
	if err == nil {
		t.Fatal("check --fail-on-down succeeded with an offline provider")
	}
	if !strings.Contains(out, "offline") {
		t.Errorf("check output = %q", out)
	}
}

func TestCheckCommand_UnknownProvider(t *testing.T) {
	srv := upstream(t, "good")
	path := writeConfig(t, "providers:\n  - {name: good, url: "+srv.URL+"}\n")

	if _, err := execute(t, "check", "--config", path, "missing"); !errors.Is(err, health.ErrUnknownProvider) {
		t.Errorf("check error = %v, want ErrUnknownProvider", err)
	}
}

func TestCheckCommand_MissingConfig(t *testing.T) {
	if _, err := execute(t, "check", "--config", "/nonexistent/provwatch.yaml"); err == nil {
		t.Error("check succeeded without a config file")
	}
}

func TestServeMux(t *testing.T) {
	srv := upstream(t, "good")
	cfg, err := parseConfig([]byte(fmt.Sprintf(`
providers:
  - {name: good, url: %s, headers: {Authorization: Bearer good}}
`, srv.URL)))
	if err != nil {
		t.Fatal(err)
	}
	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer func() { _ = a.Close(context.Background()) }()

	mux := newMux(a)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/providers/good/check", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST check status = %d: %s", rec.Code, rec.Body)
	}
	var st health.Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.State != health.StateOnline || st.LastChecked == nil {
		t.Errorf("checked status = %+v", st)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/providers/nope/check", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown provider status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("metrics without prometheus exporter: status = %d, want 404", rec.Code)
	}
}
