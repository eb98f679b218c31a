// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin

import (
	"github.com/juju/collections/set"
)

// Flag names a relation-level state exposed to the owning charm's logic.
type Flag string

const (
	// Connected is raised once the relation has at least one member.
	Connected Flag = "connected"

	// Available is raised once the minimum fields this role needs in
	// order to act are present.
	Available Flag = "available"

	// Changed is raised when content relevant to this role differs from
	// what was last observed. It is lowered by the charm, via
	// ClearChanged, once the change has been consumed.
	Changed Flag = "changed"
)

// Flags tracks which relation-level flags are currently raised,
// namespaced by relation name for consumption by the owning charm.
type Flags struct {
	relation string
	raised   set.Strings
}

// NewFlags returns an empty flag set for the named relation.
func NewFlags(relation string) *Flags {
	return &Flags{
		relation: relation,
		raised:   set.NewStrings(),
	}
}

// Raise marks the flag as set.
func (f *Flags) Raise(flag Flag) {
	f.raised.Add(string(flag))
}

// Lower removes the flag.
func (f *Flags) Lower(flag Flag) {
	f.raised.Remove(string(flag))
}

// Raised reports whether the flag is currently set.
func (f *Flags) Raised(flag Flag) bool {
	return f.raised.Contains(string(flag))
}

// Name returns the qualified flag name, e.g. "manila-plugin.changed",
// which is how the charm's handlers refer to it.
func (f *Flags) Name(flag Flag) string {
	return f.relation + "." + string(flag)
}

// Snapshot returns the qualified names of all raised flags, sorted. Used
// for trace logging and status reporting.
func (f *Flags) Snapshot() []string {
	raised := f.raised.SortedValues()
	names := make([]string, len(raised))
	for i, flag := range raised {
		names[i] = f.Name(Flag(flag))
	}
	return names
}
