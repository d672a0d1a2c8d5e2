// Package conflicts decides what happens when a destination already holds
// content: skip, overwrite, rename, merge, or ask.
package conflicts

import (
	"context"
	"fmt"
	"strings"

	"github.com/arthur-debert/devsync/pkg/adapter"
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/manifest"
	"github.com/arthur-debert/devsync/pkg/paths"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/arthur-debert/devsync/pkg/types"
)

// Policy is the strategy applied to an occupied destination.
type Policy string

const (
	Skip      Policy = "skip"
	Overwrite Policy = "overwrite"
	Rename    Policy = "rename"
	Prompt    Policy = "prompt"
	Merge     Policy = "merge"
)

// Policies lists every policy in display order.
var Policies = []Policy{Skip, Overwrite, Rename, Prompt, Merge}

// ParsePolicy parses a policy name, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Policies {
		if p == known {
			return p, nil
		}
	}
	return "", errors.Newf(errors.ErrInvalidInput, "unknown conflict policy %q (want one of %v)", s, Policies)
}

// ParseNonInteractive parses the policy used where prompting is impossible.
// Only skip and overwrite can be decided without a human.
func ParseNonInteractive(s string) (Policy, error) {
	p, err := ParsePolicy(s)
	if err != nil {
		return "", err
	}
	if p != Skip && p != Overwrite {
		return "", errors.Newf(errors.ErrInvalidInput,
			"non-interactive policy must be skip or overwrite, got %q", s)
	}
	return p, nil
}

// Action is the outcome of a decision.
type Action string

const (
	// ActionWrite writes the incoming content to Decision.Destination.
	ActionWrite Action = "write"
	// ActionNoOp leaves the destination untouched.
	ActionNoOp Action = "noop"
)

// Skip reasons reported in results.
const (
	ReasonUnsupported = "unsupported"
	ReasonPolicy      = "policy"
	ReasonConflict    = "conflict"
)

// Conflict describes one occupied destination.
type Conflict struct {
	Component   manifest.Component
	Tool        types.ToolID
	Destination paths.Destination

	// Exists is true when the destination file (or section / entry)
	// already has content.
	Exists bool
	// Existing and Incoming are the current and new content of the
	// destination region.
	Existing []byte
	Incoming []byte

	// Owner names another package that installed the destination, for
	// namespace collisions.
	Owner string

	// Taken reports whether a candidate destination is occupied; used to
	// find a free rename target.
	Taken func(paths.Destination) bool
}

// Decision is what the caller must do.
type Decision struct {
	Action      Action
	Policy      Policy
	Destination paths.Destination
	// Merged replaces Incoming when a merge succeeded.
	Merged []byte
	// Backup is set when existing bytes will be replaced.
	Backup bool
	// Reason explains a NoOp.
	Reason string
}

// Prompter is the decision channel for Prompt. Implementations must return
// one of Skip, Overwrite, Rename or Merge.
type Prompter interface {
	Ask(ctx context.Context, c Conflict) (Policy, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, c Conflict) (Policy, error)

func (f PrompterFunc) Ask(ctx context.Context, c Conflict) (Policy, error) { return f(ctx, c) }

// StaticPrompter answers every prompt with the same policy.
type StaticPrompter Policy

func (s StaticPrompter) Ask(context.Context, Conflict) (Policy, error) { return Policy(s), nil }

// Resolver applies a policy to conflicts.
type Resolver struct {
	Policy Policy
	// Prompter is nil when running without a terminal.
	Prompter Prompter
	// NonInteractive answers Prompt when Prompter is nil. Empty means such
	// conflicts are unresolved.
	NonInteractive Policy
	Merger         adapter.Merger
}

// Interactive reports whether prompts can be answered.
func (r *Resolver) Interactive() bool {
	return r.Prompter != nil
}

// Resolve runs the conflict procedure for one destination.
func (r *Resolver) Resolve(ctx context.Context, c Conflict) (Decision, error) {
	if !c.Exists {
		return Decision{Action: ActionWrite, Policy: r.Policy, Destination: c.Destination}, nil
	}
	policy := r.Policy
	if policy == "" {
		policy = Prompt
	}
	return r.apply(ctx, c, policy, false)
}

func (r *Resolver) apply(ctx context.Context, c Conflict, policy Policy, afterMerge bool) (Decision, error) {
	logger := logging.GetLogger("conflicts")

	switch policy {
	case Skip:
		return Decision{Action: ActionNoOp, Policy: Skip, Destination: c.Destination, Reason: ReasonPolicy}, nil

	case Overwrite:
		return Decision{Action: ActionWrite, Policy: Overwrite, Destination: c.Destination, Backup: true}, nil

	case Rename:
		dest, err := renameTarget(c)
		if err != nil {
			return Decision{}, err
		}
		logger.Debug().
			Str("from", c.Destination.Key()).
			Str("to", dest.Key()).
			Msg("Renaming conflicting destination")
		return Decision{Action: ActionWrite, Policy: Rename, Destination: dest}, nil

	case Merge:
		merged, err := r.merge(ctx, c)
		if err == nil {
			return Decision{Action: ActionWrite, Policy: Merge, Destination: c.Destination, Merged: merged, Backup: true}, nil
		}
		logger.Warn().Err(err).
			Str("component", c.Component.Name).
			Str("tool", string(c.Tool)).
			Msg("Merge failed, degrading")
		if r.Interactive() && !afterMerge {
			return r.apply(ctx, c, Prompt, true)
		}
		return Decision{Action: ActionNoOp, Policy: Merge, Destination: c.Destination, Reason: ReasonConflict}, nil

	case Prompt:
		answer, err := r.ask(ctx, c)
		if err != nil {
			return Decision{}, err
		}
		if answer == Prompt {
			return Decision{}, errors.New(errors.ErrInternal, "prompter answered with prompt")
		}
		if answer == Merge && afterMerge {
			// the merge already failed once; do not loop
			return Decision{Action: ActionNoOp, Policy: Merge, Destination: c.Destination, Reason: ReasonConflict}, nil
		}
		return r.apply(ctx, c, answer, afterMerge)
	}

	return Decision{}, errors.Newf(errors.ErrInvalidInput, "unknown conflict policy %q", policy)
}

func (r *Resolver) ask(ctx context.Context, c Conflict) (Policy, error) {
	if r.Prompter != nil {
		p, err := r.Prompter.Ask(ctx, c)
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrConflictUnresolved, "no decision for %s", c.Destination.Key()).
				WithDetail("component", c.Component.Name)
		}
		return p, nil
	}
	if r.NonInteractive != "" {
		return r.NonInteractive, nil
	}
	return "", errors.Newf(errors.ErrConflictUnresolved,
		"%s already exists and no decision can be prompted", c.Destination.Key()).
		WithDetail("component", c.Component.Name).
		WithDetail("tool", string(c.Tool))
}

func (r *Resolver) merge(ctx context.Context, c Conflict) ([]byte, error) {
	if _, ok := c.Destination.Rule.(registry.ConfigEntry); ok {
		return nil, errors.New(errors.ErrAdaptation, "config entries cannot be merged")
	}
	return adapter.Merge(ctx, r.Merger, c.Existing, c.Incoming, c.Component)
}

// maxRename bounds the search for a free rename target.
const maxRename = 1000

func renameTarget(c Conflict) (paths.Destination, error) {
	taken := c.Taken
	if taken == nil {
		taken = func(paths.Destination) bool { return false }
	}

	for n := 1; n <= maxRename; n++ {
		dest := c.Destination
		if dest.Shared() {
			dest.Section = fmt.Sprintf("%s-%d", c.Destination.Section, n)
		} else {
			ext := ""
			if rule, ok := dest.Rule.(registry.OneFilePerItem); ok {
				ext = rule.Extension
			}
			dest.Path = paths.RenamedPath(c.Destination.Path, n, ext)
		}
		if !taken(dest) {
			return dest, nil
		}
	}
	return paths.Destination{}, errors.Newf(errors.ErrPathCollision,
		"no free rename target for %s", c.Destination.Key())
}
