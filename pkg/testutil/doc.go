// Package testutil provides utilities for testing devsync components.
//
// Key components:
//   - TestEnvironment: an isolated project directory with tracker and
//     backup locations, HOME and XDG variables pointed inside the test
//   - PackageBuilder: declarative package setup that writes a manifest and
//     its component files
//   - FailingFS: a types.FS wrapper that injects write failures
//
// Usage guidelines:
//   - Pure transforms (manifest, adapter, registry) use the afero memory
//     filesystem directly
//   - Anything that touches the tracker uses TestEnvironment, because the
//     tracker lock lives on the real filesystem
//   - All test data should be defined inline, not in external files
package testutil
