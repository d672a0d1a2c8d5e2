// Package registry is the capability table of every supported AI tool:
// which component kinds a tool accepts and the install rule that places
// each kind on disk. Adding a tool is a table entry, not new code, unless
// the tool needs a new install rule shape.
package registry
