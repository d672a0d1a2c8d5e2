// Package credentials resolves the environment values MCP servers declare.
// Resolution is injected: the engine asks a Resolver for each descriptor and
// only ever writes the values into rendered MCP config content.
package credentials

import (
	"context"
	"os"
	"sort"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/manifest"
)

// Resolver returns the value of one credential. found is false when the
// resolver has no value; the caller then moves on to the next source.
type Resolver interface {
	Resolve(ctx context.Context, d manifest.CredentialDescriptor) (value string, found bool, err error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, d manifest.CredentialDescriptor) (string, bool, error)

func (f ResolverFunc) Resolve(ctx context.Context, d manifest.CredentialDescriptor) (string, bool, error) {
	return f(ctx, d)
}

// EnvResolver reads credentials from the process environment.
type EnvResolver struct {
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

func (r EnvResolver) Resolve(_ context.Context, d manifest.CredentialDescriptor) (string, bool, error) {
	lookup := r.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(d.Name)
	if !ok || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// Static resolves from a fixed map. Useful for tests and CI.
type Static map[string]string

func (s Static) Resolve(_ context.Context, d manifest.CredentialDescriptor) (string, bool, error) {
	v, ok := s[d.Name]
	return v, ok, nil
}

// Chain tries each resolver in order.
type Chain []Resolver

func (c Chain) Resolve(ctx context.Context, d manifest.CredentialDescriptor) (string, bool, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		v, ok, err := r.Resolve(ctx, d)
		if err != nil {
			return "", false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

// ResolveAll builds the env map of an MCP server: its declared env values,
// then every credential from r, falling back to the descriptor default.
// A required credential nobody can supply is a CREDENTIAL error. Optional
// credentials without a value are left out.
func ResolveAll(ctx context.Context, r Resolver, c manifest.Component) (map[string]string, error) {
	env := make(map[string]string, len(c.Env)+len(c.Credentials))
	for k, v := range c.Env {
		env[k] = v
	}

	var missing []string
	for _, d := range c.Credentials {
		var (
			v   string
			ok  bool
			err error
		)
		if r != nil {
			v, ok, err = r.Resolve(ctx, d)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrCredential, "cannot resolve credential %s", d.Name).
					WithDetail("credential", d.Name).
					WithDetail("component", c.Name)
			}
		}
		if !ok && d.Default != nil {
			v, ok = *d.Default, true
		}
		if !ok {
			if d.Required {
				missing = append(missing, d.Name)
			}
			continue
		}
		logging.RegisterSecret(v)
		env[d.Name] = v
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.Newf(errors.ErrCredential, "missing required credentials for %s: %v", c.Name, missing).
			WithDetail("component", c.Name).
			WithDetail("missing", missing)
	}
	return env, nil
}
