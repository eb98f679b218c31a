// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package hooks defines the relation lifecycle events delivered to the
// manila-plugin interface roles by the coordination substrate.
package hooks

import (
	"github.com/juju/errors"
	"github.com/juju/names/v5"
)

// Kind enumerates the relation hooks understood by the interface roles.
type Kind string

const (
	RelationJoined   Kind = "relation-joined"
	RelationChanged  Kind = "relation-changed"
	RelationDeparted Kind = "relation-departed"
	RelationBroken   Kind = "relation-broken"
)

// Valid reports whether k is a hook kind known to this interface.
func (k Kind) Valid() bool {
	switch k {
	case RelationJoined, RelationChanged, RelationDeparted, RelationBroken:
		return true
	}
	return false
}

// Info holds the details required to dispatch a hook. It is marshalled as
// JSON when carried over a structured hub.
type Info struct {
	Kind Kind `json:"kind"`

	// RemoteUnit is the unit on the other side of the relation that
	// triggered the hook. It is empty for relation-broken, which fires
	// once the relation itself is gone.
	RemoteUnit string `json:"remote-unit,omitempty"`
}

// Validate returns an error if the info cannot be dispatched.
func (i Info) Validate() error {
	if !i.Kind.Valid() {
		return errors.NotValidf("hook kind %q", i.Kind)
	}
	switch i.Kind {
	case RelationJoined, RelationChanged, RelationDeparted:
		if i.RemoteUnit == "" {
			return errors.NotValidf("%q hook missing remote unit", i.Kind)
		}
		if !names.IsValidUnit(i.RemoteUnit) {
			return errors.NotValidf("remote unit %q", i.RemoteUnit)
		}
	}
	return nil
}
