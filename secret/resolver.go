package secret

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Resolver resolves secret references using registered sources.
//
// Values are first expanded with ExpandEnvStrict. A value that is a whole
// secretref is replaced by the resolved secret; secretrefs embedded in a
// longer value, such as "Bearer secretref:env:KEY", are replaced in place.
type Resolver struct {
	sources map[string]Source
	strict  bool
}

// NewResolver creates a resolver. A strict resolver rejects empty secrets.
func NewResolver(strict bool, sources ...Source) *Resolver {
	r := &Resolver{
		sources: make(map[string]Source),
		strict:  strict,
	}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// NewDefaultResolver creates a strict resolver with the env and file
// sources registered.
func NewDefaultResolver() *Resolver {
	return NewResolver(true, EnvSource{}, FileSource{})
}

// Register adds or replaces a source.
func (r *Resolver) Register(source Source) {
	if source == nil {
		return
	}
	r.sources[source.Name()] = source
}

// ResolveValue resolves environment variables and secret refs in value.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}

	if source, ref, ok := ParseSecretRef(expanded); ok {
		return r.resolveSingle(ctx, source, ref)
	}
	return r.resolveInline(ctx, expanded)
}

// ResolveHeader resolves each value of a header map and returns it as an
// http.Header with canonical keys. Errors name the header, never the
// value.
func (r *Resolver) ResolveHeader(ctx context.Context, input map[string]string) (http.Header, error) {
	out := make(http.Header, len(input))
	for key, value := range input {
		resolved, err := r.ResolveValue(ctx, value)
		if err != nil {
			return nil, fmt.Errorf("resolve header %q: %w", key, err)
		}
		out.Set(key, resolved)
	}
	return out, nil
}

// ParseSecretRef parses a full secret reference of the form:
//
//	secretref:<source>:<ref>
func ParseSecretRef(value string) (source string, ref string, ok bool) {
	const prefix = "secretref:"
	if !strings.HasPrefix(value, prefix) {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(value, prefix), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func (r *Resolver) resolveSingle(ctx context.Context, sourceName string, ref string) (string, error) {
	source, ok := r.sources[sourceName]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, sourceName)
	}
	resolved, err := source.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if r.strict && resolved == "" {
		return "", fmt.Errorf("%w: %s:%s", ErrEmptySecret, sourceName, ref)
	}
	return resolved, nil
}

var inlineSecretRefPattern = regexp.MustCompile(`secretref:([^:\s]+):([^\s]+)`)

func (r *Resolver) resolveInline(ctx context.Context, value string) (string, error) {
	matches := inlineSecretRefPattern.FindAllStringSubmatchIndex(value, -1)
	if len(matches) == 0 {
		return value, nil
	}

	var errs []error
	out := value
	// Replace from the end so earlier indexes stay valid.
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		resolved, err := r.resolveSingle(ctx, out[m[2]:m[3]], out[m[4]:m[5]])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = out[:m[0]] + resolved + out[m[1]:]
	}
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return out, nil
}
