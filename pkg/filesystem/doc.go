// Package filesystem provides the types.FS implementations devsync runs on.
//
// NewOS writes through a temporary sibling and a rename so an interrupted
// install never leaves a half-written rules or config file behind. NewMemory
// wraps an afero memory filesystem with the same semantics for unit tests.
//
// Both implement types.Locker. The OS variant holds flock locks visible to
// other devsync processes; the memory variant never touches the disk.
package filesystem
