package adapter

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/manifest"
)

// Merger combines existing destination content with an incoming component.
// Implementations may be nondeterministic and may fail; callers must treat
// failure as recoverable.
type Merger interface {
	Merge(ctx context.Context, existing, incoming []byte, c manifest.Component) ([]byte, error)
}

// MergerFunc adapts a function to Merger.
type MergerFunc func(ctx context.Context, existing, incoming []byte, c manifest.Component) ([]byte, error)

func (f MergerFunc) Merge(ctx context.Context, existing, incoming []byte, c manifest.Component) ([]byte, error) {
	return f(ctx, existing, incoming, c)
}

// ErrMergeUnavailable is returned when no merger is configured.
var ErrMergeUnavailable = errors.New(errors.ErrAdaptation, "no merge capability configured")

// Merge runs m, mapping an absent merger and every failure to ADAPTATION.
func Merge(ctx context.Context, m Merger, existing, incoming []byte, c manifest.Component) ([]byte, error) {
	if m == nil {
		return nil, ErrMergeUnavailable
	}
	out, err := m.Merge(ctx, existing, incoming, c)
	if err != nil {
		if errors.IsErrorCode(err, errors.ErrAdaptation) {
			return nil, err
		}
		return nil, errors.Wrapf(err, errors.ErrAdaptation, "merge of %s failed", c.Name).
			WithDetail("component", c.Name)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, errors.Newf(errors.ErrAdaptation, "merge of %s produced no content", c.Name).
			WithDetail("component", c.Name)
	}
	return out, nil
}

// ExecMerger runs an external program as the merge capability. The program
// receives the existing and incoming content as two file arguments and
// prints the merged result on stdout.
type ExecMerger struct {
	Command []string
	Timeout time.Duration
}

// NewExecMerger returns nil when command is empty, so an unconfigured merge
// command surfaces as ErrMergeUnavailable.
func NewExecMerger(command []string, timeout time.Duration) Merger {
	if len(command) == 0 {
		return nil
	}
	return &ExecMerger{Command: command, Timeout: timeout}
}

func (m *ExecMerger) Merge(ctx context.Context, existing, incoming []byte, c manifest.Component) ([]byte, error) {
	logger := logging.GetLogger("adapter")

	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "devsync-merge-")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrAdaptation, "cannot create merge workspace")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	existingPath := filepath.Join(dir, "existing")
	incomingPath := filepath.Join(dir, "incoming")
	if err := os.WriteFile(existingPath, existing, 0600); err != nil {
		return nil, errors.Wrap(err, errors.ErrAdaptation, "cannot stage existing content")
	}
	if err := os.WriteFile(incomingPath, incoming, 0600); err != nil {
		return nil, errors.Wrap(err, errors.ErrAdaptation, "cannot stage incoming content")
	}

	args := append(append([]string{}, m.Command[1:]...), existingPath, incomingPath)
	cmd := exec.CommandContext(ctx, m.Command[0], args...)
	cmd.Env = append(os.Environ(),
		"DEVSYNC_COMPONENT="+c.Name,
		"DEVSYNC_KIND="+string(c.Kind),
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug().Str("command", m.Command[0]).Str("component", c.Name).Msg("Running merge command")
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrAdaptation, "merge command failed: %s", bytes.TrimSpace(stderr.Bytes())).
			WithDetail("component", c.Name)
	}
	return stdout.Bytes(), nil
}
