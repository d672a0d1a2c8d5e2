package installer

import (
	"context"

	"github.com/arthur-debert/devsync/pkg/tracker"
	"github.com/arthur-debert/devsync/pkg/types"
)

// PackageStatus summarizes one installed package.
type PackageStatus struct {
	Name      string          `json:"name"`
	Version   string          `json:"version"`
	Namespace string          `json:"namespace,omitempty"`
	Tools     []types.ToolID  `json:"tools"`
	Files     int             `json:"files"`
	Drift     []tracker.Drift `json:"drift,omitempty"`
}

// Status lists installed packages and checks their files against disk, so
// runs interrupted between writes and tracker update are detected.
func (i *Installer) Status(ctx context.Context) ([]PackageStatus, error) {
	state, err := i.tracker.Load()
	if err != nil {
		return nil, err
	}

	var out []PackageStatus
	for _, name := range state.Packages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := state[name]
		out = append(out, PackageStatus{
			Name:      name,
			Version:   rec.Version,
			Namespace: rec.Namespace,
			Tools:     rec.ToolIDs(),
			Files:     len(rec.Files()),
			Drift:     tracker.Verify(i.fs, i.project.Root, name, rec),
		})
	}
	return out, nil
}
