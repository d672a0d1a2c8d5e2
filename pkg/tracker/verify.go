package tracker

import (
	stderrors "errors"
	"io/fs"

	"github.com/arthur-debert/devsync/pkg/adapter"
	"github.com/arthur-debert/devsync/pkg/internal/hashutil"
	"github.com/arthur-debert/devsync/pkg/types"
)

// DriftState says how a recorded file differs from disk.
type DriftState string

const (
	DriftModified DriftState = "modified"
	DriftMissing  DriftState = "missing"
	// DriftUnreadable covers files whose region can no longer be parsed,
	// such as a section with a broken end marker.
	DriftUnreadable DriftState = "unreadable"
)

// Drift is one recorded file that no longer matches its checksum.
type Drift struct {
	Package string        `json:"package"`
	Tool    types.ToolID  `json:"tool"`
	File    InstalledFile `json:"file"`
	State   DriftState    `json:"state"`
	Err     error         `json:"-"`
}

// Verify recomputes the checksum of every file in rec under root. Files
// are checked the way they were recorded: whole content, section body or
// config entry.
func Verify(fsys types.FS, root, name string, rec *Record) []Drift {
	var drifts []Drift
	for _, tool := range rec.ToolIDs() {
		for _, f := range rec.Tools[tool].Files {
			state, err := Check(fsys, root, tool, f)
			if state == "" {
				continue
			}
			drifts = append(drifts, Drift{Package: name, Tool: tool, File: f, State: state, Err: err})
		}
	}
	return drifts
}

// VerifyAll runs Verify for every package of the state.
func VerifyAll(fsys types.FS, root string, state State) []Drift {
	var drifts []Drift
	for _, name := range state.Packages() {
		drifts = append(drifts, Verify(fsys, root, name, state[name])...)
	}
	return drifts
}

// Check compares one recorded file with disk. An empty state means the
// file matches.
func Check(fsys types.FS, root string, tool types.ToolID, f InstalledFile) (DriftState, error) {
	dest, err := f.Destination(root, tool)
	if err != nil {
		return DriftUnreadable, err
	}
	content, err := fsys.ReadFile(dest.Path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return DriftMissing, nil
		}
		return DriftUnreadable, err
	}
	fp, ok, err := adapter.Fingerprint(content, dest)
	if err != nil {
		return DriftUnreadable, err
	}
	if !ok {
		return DriftMissing, nil
	}
	if !hashutil.Equal(hashutil.Checksum(fp), f.Checksum) {
		return DriftModified, nil
	}
	return "", nil
}
