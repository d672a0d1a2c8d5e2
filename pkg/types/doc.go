// Package types defines the small set of types shared by every layer of
// devsync: the filesystem interface, tool identifiers and component kinds.
package types
