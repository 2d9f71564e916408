package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/provwatch/monitor"
	"github.com/jonwraymond/provwatch/observe"
	"github.com/jonwraymond/provwatch/probe"
	"github.com/jonwraymond/provwatch/secret"
)

// fileConfig is the provwatch configuration file.
//
//	monitor:
//	  check_interval_ms: 900000
//	observe:
//	  logging: {enabled: true, level: info}
//	providers:
//	  - name: openai
//	    url: https://api.openai.com/v1/models
//	    headers:
//	      Authorization: Bearer ${OPENAI_API_KEY}
type fileConfig struct {
	Monitor   monitor.FileConfig `yaml:"monitor"`
	Observe   observe.Config     `yaml:"observe"`
	Providers []providerConfig   `yaml:"providers"`
}

type providerConfig struct {
	Name    string            `yaml:"name"`
	URL     string            `yaml:"url"`
	Method  string            `yaml:"method"`
	Headers map[string]string `yaml:"headers"`
}

var (
	errNoProviders  = errors.New("config: no providers configured")
	errProviderName = errors.New("config: provider name is required")
	errProviderURL  = errors.New("config: provider url is required")
)

func loadConfig(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return parseConfig(data)
}

// parseConfig expands ${VAR} references, decodes strictly and validates.
// Header values may also hold secretref:<source>:<ref> references, which
// are resolved later by buildProbers.
func parseConfig(data []byte) (fileConfig, error) {
	expanded, err := secret.ExpandEnvStrict(string(data))
	if err != nil {
		return fileConfig{}, fmt.Errorf("config: %w", err)
	}

	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return fileConfig{}, fmt.Errorf("config: parsing: %w", err)
	}

	if cfg.Observe.ServiceName == "" {
		cfg.Observe.ServiceName = "provwatch"
	}
	if cfg.Observe.Version == "" {
		cfg.Observe.Version = version
	}

	return cfg, cfg.validate()
}

func (c fileConfig) validate() error {
	if len(c.Providers) == 0 {
		return errNoProviders
	}

	var errs []error
	seen := make(map[string]struct{}, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%w (providers[%d])", errProviderName, i))
			continue
		}
		if _, dup := seen[p.Name]; dup {
			errs = append(errs, fmt.Errorf("config: duplicate provider %q", p.Name))
		}
		seen[p.Name] = struct{}{}
		if p.URL == "" {
			errs = append(errs, fmt.Errorf("%w (provider %q)", errProviderURL, p.Name))
		}
	}
	if err := c.Monitor.Config().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Observe.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c fileConfig) providerIDs() []string {
	ids := make([]string, len(c.Providers))
	for i, p := range c.Providers {
		ids[i] = p.Name
	}
	return ids
}

// buildProbers creates an HTTP prober per provider with resolved headers.
func buildProbers(ctx context.Context, providers []providerConfig, resolver *secret.Resolver, client *http.Client) (map[string]probe.Prober, error) {
	probers := make(map[string]probe.Prober, len(providers))
	for _, p := range providers {
		header, err := resolver.ResolveHeader(ctx, p.Headers)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", p.Name, err)
		}
		hp := probe.NewHTTPProber(p.URL, header)
		hp.Method = p.Method
		hp.Client = client
		probers[p.Name] = hp
	}
	return probers, nil
}

// app is a wired monitor and its telemetry.
type app struct {
	orch     *monitor.Orchestrator
	observer observe.Observer
	logger   observe.Logger
}

func newApp(ctx context.Context, cfg fileConfig) (*app, error) {
	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, err
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}

	probers, err := buildProbers(ctx, cfg.Providers, secret.NewDefaultResolver(), nil)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}

	orch, err := monitor.New(cfg.Monitor.Config(), probers,
		monitor.WithMiddleware(mw),
		monitor.WithLogger(obs.Logger()),
	)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}
	if err := orch.Initialize(cfg.providerIDs()); err != nil {
		orch.Close()
		_ = obs.Shutdown(ctx)
		return nil, err
	}

	return &app{orch: orch, observer: obs, logger: obs.Logger()}, nil
}

func (a *app) Close(ctx context.Context) error {
	a.orch.Close()
	return a.observer.Shutdown(ctx)
}
