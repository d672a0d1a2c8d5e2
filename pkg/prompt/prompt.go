// Package prompt is the interactive decision channel for conflicts. It asks
// on the terminal with survey and is only wired in when stdin is a TTY.
package prompt

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/arthur-debert/devsync/pkg/conflicts"
	"github.com/arthur-debert/devsync/pkg/diff"
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/mattn/go-isatty"
)

// Asker runs one survey prompt. Replaced in tests.
type Asker func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error

// Terminal asks conflict questions on the terminal. Prompts are serialized
// because tools install concurrently.
type Terminal struct {
	Out    io.Writer
	AskOne Asker
	// ShowDiff prints a diff of existing and incoming content first.
	ShowDiff bool

	mu     sync.Mutex
	sticky conflicts.Policy
}

const (
	choiceSkip      = "Skip (keep existing)"
	choiceOverwrite = "Overwrite (existing is backed up)"
	choiceRename    = "Rename (install alongside)"
	choiceMerge     = "Merge"
	choiceSkipAll   = "Skip all remaining conflicts"
	choiceOverAll   = "Overwrite all remaining conflicts"
)

// IsInteractive reports whether stdin and stdout are terminals.
func IsInteractive() bool {
	in, out := os.Stdin.Fd(), os.Stdout.Fd()
	return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
		(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
}

// NewTerminal returns a Terminal prompter, or nil when not attached to a
// terminal so callers fall back to the non-interactive policy.
func NewTerminal(showDiff bool) conflicts.Prompter {
	if !IsInteractive() {
		return nil
	}
	return &Terminal{Out: os.Stderr, AskOne: survey.AskOne, ShowDiff: showDiff}
}

func (t *Terminal) Ask(ctx context.Context, c conflicts.Conflict) (conflicts.Policy, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t.sticky != "" {
		return t.sticky, nil
	}

	out := t.Out
	if out == nil {
		out = io.Discard
	}
	if t.ShowDiff {
		if text, truncated := diff.Unified(string(c.Existing), string(c.Incoming), 3); truncated {
			fmt.Fprintln(out, "(diff too large to display)")
		} else if text != "" {
			fmt.Fprint(out, text)
		}
	}

	message := fmt.Sprintf("%s already exists for %s", c.Destination.Key(), c.Tool)
	if c.Owner != "" {
		message = fmt.Sprintf("%s is owned by package %s (%s)", c.Destination.Key(), c.Owner, c.Tool)
	}

	var answer string
	q := &survey.Select{
		Message: message,
		Options: []string{choiceSkip, choiceOverwrite, choiceRename, choiceMerge, choiceSkipAll, choiceOverAll},
		Default: choiceSkip,
	}
	ask := t.AskOne
	if ask == nil {
		ask = survey.AskOne
	}
	if err := ask(q, &answer); err != nil {
		if err == terminal.InterruptErr {
			return "", errors.New(errors.ErrAbort, "interrupted")
		}
		return "", err
	}
	return t.policyFor(answer)
}

func (t *Terminal) policyFor(answer string) (conflicts.Policy, error) {
	switch answer {
	case choiceSkip:
		return conflicts.Skip, nil
	case choiceOverwrite:
		return conflicts.Overwrite, nil
	case choiceRename:
		return conflicts.Rename, nil
	case choiceMerge:
		return conflicts.Merge, nil
	case choiceSkipAll:
		t.sticky = conflicts.Skip
		return conflicts.Skip, nil
	case choiceOverAll:
		t.sticky = conflicts.Overwrite
		return conflicts.Overwrite, nil
	}
	return "", errors.Newf(errors.ErrInvalidInput, "unexpected answer %q", strings.TrimSpace(answer))
}
